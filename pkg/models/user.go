package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `bun:",nullzero" json:"username"`
	Email        string    `bun:",nullzero" json:"email"`
	PasswordHash string    `json:"-"` // Never expose password hash
	FullName     string    `json:"full_name"`
	Bio          string    `json:"bio"`
	AvatarPath   *string   `json:"avatar_path"`
	IsAdmin      bool      `json:"is_admin"`
}

// CanManage reports whether the user may edit or delete the given book. Only
// the uploader and admins can.
func (u *User) CanManage(b *Book) bool {
	return u.IsAdmin || b.UploaderID == u.ID
}
