package books

import "mime/multipart"

type ListBooksQuery struct {
	Limit    int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset   int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Q        *string `query:"q" json:"q,omitempty" validate:"omitempty,max=100"`
	Genre    *string `query:"genre" json:"genre,omitempty" validate:"omitempty,oneof=Fiction Comic Motivational"`
	Favorite bool    `query:"favorite" json:"favorite,omitempty"`
}

// CreateBookPayload is bound from the multipart upload form. The PDF itself
// arrives in FormFiles under the "pdf" key.
type CreateBookPayload struct {
	Title       string  `form:"title" json:"title" validate:"required,max=255"`
	Author      string  `form:"author" json:"author,omitempty" validate:"omitempty,max=255"`
	Description string  `form:"description" json:"description,omitempty" validate:"omitempty,max=5000"`
	Year        *int    `form:"year" json:"year,omitempty" validate:"omitempty,min=1,max=9999"`
	Genre       *string `form:"genre" json:"genre,omitempty" validate:"omitempty,oneof=Fiction Comic Motivational"`

	FormFiles map[string]*multipart.FileHeader `form:"-" json:"-"`
}

// UpdateBookPayload edits user-supplied fields. A replacement PDF in
// FormFiles re-runs the derivation phase; the slug never changes.
type UpdateBookPayload struct {
	Title       *string `form:"title" json:"title,omitempty" validate:"omitempty,max=255"`
	Author      *string `form:"author" json:"author,omitempty" validate:"omitempty,max=255"`
	Description *string `form:"description" json:"description,omitempty" validate:"omitempty,max=5000"`
	Year        *int    `form:"year" json:"year,omitempty" validate:"omitempty,min=1,max=9999"`
	Genre       *string `form:"genre" json:"genre,omitempty" validate:"omitempty,oneof=Fiction Comic Motivational"`

	FormFiles map[string]*multipart.FileHeader `form:"-" json:"-"`
}
