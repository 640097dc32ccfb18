package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Genres is the fixed set of allowed book genres.
const (
	GenreFiction      = "Fiction"
	GenreComic        = "Comic"
	GenreMotivational = "Motivational"
)

// Keyword is one ranked term produced by the ingestion pipeline. Scores are
// in [0,1], rounded to 4 decimal places.
type Keyword struct {
	Word  string  `json:"word"`
	Score float64 `json:"score"`
}

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Slug        string    `bun:",nullzero" json:"slug"`
	Title       string    `bun:",nullzero" json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Year        *int      `json:"year,omitempty"`
	Genre       string    `bun:",nullzero" json:"genre"`
	UploaderID  int       `bun:",nullzero" json:"uploader_id"`
	Uploader    *User     `bun:"rel:belongs-to,join:uploader_id=id" json:"uploader,omitempty"`

	// PDFPath is the media-store path of the uploaded source document.
	PDFPath string `bun:",nullzero" json:"pdf_path"`

	// Derived fields, written by the ingestion pipeline as a second partial
	// update after the base row is committed. They are best effort: when the
	// pipeline fails they stay at their defaults.
	NumPages       int       `json:"num_pages"`
	MetaTitle      string    `json:"meta_title"`
	MetaAuthor     string    `json:"meta_author"`
	CoverPath      *string   `json:"cover_path"`
	CoverThumbPath *string   `json:"cover_thumb_path"`
	PageImagePaths []string  `json:"page_image_paths"`
	Keywords       []Keyword `json:"keywords"`

	// IsFavorite is filled in per requesting user by the books service. It is
	// scanned from a computed column, never stored.
	IsFavorite bool `bun:"is_favorite,scanonly" json:"is_favorite"`
}

// BookFavorite is a row in the book/user favorites join table.
type BookFavorite struct {
	bun.BaseModel `bun:"table:book_favorites,alias:bf"`

	ID     int `bun:",pk,nullzero" json:"id"`
	BookID int `json:"book_id"`
	UserID int `json:"user_id"`
}
