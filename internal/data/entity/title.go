package entity

import (
	"github.com/google/uuid"
)

type Title struct {
	Base
	Name        string     `db:"name"`
	Year        int        `db:"year"`
	Description string     `db:"description"`
	CategoryID  *uuid.UUID `db:"category_id"`

	// Read-only, filled by the title repository.
	Rating   *float64
	Category *Category
	Genres   []*Genre
}

// TitleFilter narrows title listings. Zero values mean no filter.
type TitleFilter struct {
	Name     string
	Year     *int
	Genre    string
	Category string
}
