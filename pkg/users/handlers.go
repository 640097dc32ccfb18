package users

import (
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/elibbooks/elib/pkg/auth"
	"github.com/elibbooks/elib/pkg/errcodes"
	"github.com/elibbooks/elib/pkg/mediastore"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	userService *Service
	store       *mediastore.Store
}

// retrieveProfile returns the authenticated user's profile.
func (h *handler) retrieveProfile(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	user, err := h.userService.Retrieve(ctx, RetrieveUserOptions{ID: &userID})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

// updateProfile updates the authenticated user's profile fields and,
// optionally, their avatar image.
func (h *handler) updateProfile(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := UpdateProfilePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Retrieve(ctx, RetrieveUserOptions{ID: &userID})
	if err != nil {
		return errors.WithStack(err)
	}

	// Keep track of what's been changed.
	opts := UpdateUserOptions{Columns: []string{}}

	if params.FullName != nil && *params.FullName != user.FullName {
		user.FullName = *params.FullName
		opts.Columns = append(opts.Columns, "full_name")
	}
	if params.Bio != nil && *params.Bio != user.Bio {
		user.Bio = *params.Bio
		opts.Columns = append(opts.Columns, "bio")
	}

	if fh, ok := params.FormFiles["avatar"]; ok {
		key, err := h.saveAvatar(fh)
		if err != nil {
			return err
		}
		user.AvatarPath = &key
		opts.Columns = append(opts.Columns, "avatar_path")
	}

	if err := h.userService.Update(ctx, user, opts); err != nil {
		return errors.WithStack(err)
	}

	user, err = h.userService.Retrieve(ctx, RetrieveUserOptions{ID: &userID})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

// avatar serves a user's avatar image.
func (h *handler) avatar(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	user, err := h.userService.Retrieve(ctx, RetrieveUserOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}
	if user.AvatarPath == nil {
		return errcodes.NotFound("Avatar")
	}

	path, err := h.store.Abs(*user.AvatarPath)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.File(path))
}

func (h *handler) saveAvatar(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", errcodes.ValidationError("Avatar must be an image.")
	}
	if _, err := src.Seek(0, 0); err != nil {
		return "", errors.WithStack(err)
	}

	ext := mtype.Extension()
	if ext == "" {
		ext = filepath.Ext(fh.Filename)
	}
	key := "avatars/" + uuid.NewString() + ext

	if err := h.store.Save(key, src); err != nil {
		return "", errors.WithStack(err)
	}

	return key, nil
}
