package request

// TitleRequest references its category and genres by slug.
type TitleRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=256"`
	Year        *int     `json:"year" validate:"required,gte=0,pastyear"`
	Description string   `json:"description"`
	Category    string   `json:"category" validate:"omitempty,max=50,slug"`
	Genre       []string `json:"genre" validate:"omitempty,dive,required,max=50,slug"`
}

// TitleUpdateRequest is a partial update. An empty category clears it; a
// present genre list (even empty) replaces the current genres.
type TitleUpdateRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=256"`
	Year        *int     `json:"year,omitempty" validate:"omitempty,gte=0,pastyear"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=50"`
	Genre       []string `json:"genre,omitempty" validate:"omitempty,dive,required,max=50,slug"`
}

type TitleListRequest struct {
	PaginatedRequest
	Name     string
	Year     *int
	Genre    string
	Category string
}
