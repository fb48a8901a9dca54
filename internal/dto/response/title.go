package response

import "yamdb-api/internal/data/entity"

type TitleResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Rating      *int              `json:"rating"`
	Description string            `json:"description"`
	Genre       []GenreResponse   `json:"genre"`
	Category    *CategoryResponse `json:"category"`
}

// TitleToResponse truncates the average score to an integer; rating stays
// null for titles without reviews.
func TitleToResponse(title *entity.Title) TitleResponse {
	resp := TitleResponse{
		ID:          title.ID.String(),
		Name:        title.Name,
		Year:        title.Year,
		Description: title.Description,
		Genre:       make([]GenreResponse, 0, len(title.Genres)),
	}

	if title.Rating != nil {
		rating := int(*title.Rating)
		resp.Rating = &rating
	}

	if title.Category != nil {
		category := CategoryToResponse(title.Category)
		resp.Category = &category
	}

	for _, genre := range title.Genres {
		resp.Genre = append(resp.Genre, GenreToResponse(genre))
	}

	return resp
}
