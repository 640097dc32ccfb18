package users

import "mime/multipart"

// UpdateProfilePayload represents a profile update. It binds from JSON or
// from multipart form data when an avatar image is included.
type UpdateProfilePayload struct {
	FullName *string `form:"full_name" json:"full_name,omitempty" validate:"omitempty,max=150"`
	Bio      *string `form:"bio" json:"bio,omitempty" validate:"omitempty,max=2000"`

	FormFiles map[string]*multipart.FileHeader `form:"-" json:"-"`
}
