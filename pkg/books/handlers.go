package books

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/elibbooks/elib/pkg/auth"
	"github.com/elibbooks/elib/pkg/errcodes"
	"github.com/elibbooks/elib/pkg/htmlutil"
	"github.com/elibbooks/elib/pkg/mediastore"
	"github.com/elibbooks/elib/pkg/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pkg/errors"
)

type handler struct {
	bookService *Service
	store       *mediastore.Store
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListBooksOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Search: params.Q,
		Genre:  params.Genre,
	}

	if userID, ok := auth.UserIDFromContext(c); ok {
		opts.ForUserID = &userID
		opts.FavoritesOnly = params.Favorite
	}

	books, total, err := h.bookService.ListBooksWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Books []*models.Book `json:"books"`
		Total int            `json:"total"`
	}{books, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	book, err := h.bookForRequest(c)
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	user := auth.UserFromContext(c)
	if user == nil {
		return errcodes.Unauthorized("Authentication required")
	}

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	fh, ok := params.FormFiles["pdf"]
	if !ok {
		return errcodes.ValidationError("A PDF file is required.")
	}

	key, err := h.savePDF(fh)
	if err != nil {
		return err
	}

	genre := models.GenreFiction
	if params.Genre != nil {
		genre = *params.Genre
	}

	book := &models.Book{
		Title:       params.Title,
		Author:      params.Author,
		Description: htmlutil.StripTags(params.Description),
		Year:        params.Year,
		Genre:       genre,
		UploaderID:  user.ID,
		PDFPath:     key,
	}

	if err := h.bookService.CreateBook(ctx, book); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	book, err := h.bookForRequest(c)
	if err != nil {
		return err
	}

	user := auth.UserFromContext(c)
	if user == nil || !user.CanManage(book) {
		return errcodes.Forbidden("Editing another user's book")
	}

	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Keep track of what's been changed.
	opts := UpdateBookOptions{Columns: []string{}}

	if params.Title != nil && *params.Title != book.Title {
		book.Title = *params.Title
		opts.Columns = append(opts.Columns, "title")
	}
	if params.Author != nil && *params.Author != book.Author {
		book.Author = *params.Author
		opts.Columns = append(opts.Columns, "author")
	}
	if params.Description != nil {
		if stripped := htmlutil.StripTags(*params.Description); stripped != book.Description {
			book.Description = stripped
			opts.Columns = append(opts.Columns, "description")
		}
	}
	if params.Year != nil && (book.Year == nil || *params.Year != *book.Year) {
		book.Year = params.Year
		opts.Columns = append(opts.Columns, "year")
	}
	if params.Genre != nil && *params.Genre != book.Genre {
		book.Genre = *params.Genre
		opts.Columns = append(opts.Columns, "genre")
	}

	if err := h.bookService.UpdateBook(ctx, book, opts); err != nil {
		return errors.WithStack(err)
	}

	// A replacement document re-runs derivation; the slug never changes.
	if fh, ok := params.FormFiles["pdf"]; ok {
		key, err := h.savePDF(fh)
		if err != nil {
			return err
		}
		if err := h.bookService.ReplacePDF(ctx, book, key); err != nil {
			return errors.WithStack(err)
		}
	}

	book, err = h.bookForRequest(c)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	book, err := h.bookForRequest(c)
	if err != nil {
		return err
	}

	user := auth.UserFromContext(c)
	if user == nil || !user.CanManage(book) {
		return errcodes.Forbidden("Deleting another user's book")
	}

	if err := h.bookService.DeleteBook(ctx, book); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) favorite(c echo.Context) error {
	ctx := c.Request().Context()

	book, err := h.bookForRequest(c)
	if err != nil {
		return err
	}

	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	isFavorite, err := h.bookService.ToggleFavorite(ctx, book.ID, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		IsFavorite bool `json:"is_favorite"`
	}{isFavorite}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) analyze(c echo.Context) error {
	ctx := c.Request().Context()

	book, err := h.bookForRequest(c)
	if err != nil {
		return err
	}

	keywords, err := h.bookService.Analyze(ctx, book)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Keywords []models.Keyword `json:"keywords"`
	}{keywords}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// bookForRequest loads the book named by the :slug route param, with
// IsFavorite populated when a user is signed in.
func (h *handler) bookForRequest(c echo.Context) (*models.Book, error) {
	ctx := c.Request().Context()

	slug := c.Param("slug")
	opts := RetrieveBookOptions{Slug: &slug}
	if userID, ok := auth.UserIDFromContext(c); ok {
		opts.ForUserID = &userID
	}

	book, err := h.bookService.RetrieveBook(ctx, opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return book, nil
}

// savePDF sniffs and structurally validates the upload before it is stored.
// Invalid uploads never leave a stored file or a database row behind.
func (h *handler) savePDF(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if !mtype.Is("application/pdf") {
		return "", errcodes.ValidationError("Uploaded file must be a PDF.")
	}
	if _, err := src.Seek(0, 0); err != nil {
		return "", errors.WithStack(err)
	}

	key := "pdfs/" + uuid.NewString() + ".pdf"
	if err := h.store.Save(key, src); err != nil {
		return "", errors.WithStack(err)
	}

	path, err := h.store.Abs(key)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if err := api.ValidateFile(path, nil); err != nil {
		if rerr := h.store.Remove(key); rerr != nil {
			return "", errors.WithStack(rerr)
		}
		return "", errcodes.ValidationError("Uploaded file is not a valid PDF.")
	}

	return key, nil
}

// cover serves the full-size cover image, which is the first page image.
func (h *handler) cover(c echo.Context) error {
	book, err := h.bookForRequest(c)
	if err != nil {
		return err
	}
	if book.CoverPath == nil {
		return errcodes.NotFound("Cover")
	}
	return h.serveMedia(c, *book.CoverPath)
}

// thumb serves the catalog thumbnail, falling back to the full cover.
func (h *handler) thumb(c echo.Context) error {
	book, err := h.bookForRequest(c)
	if err != nil {
		return err
	}
	if book.CoverThumbPath != nil {
		return h.serveMedia(c, *book.CoverThumbPath)
	}
	if book.CoverPath != nil {
		return h.serveMedia(c, *book.CoverPath)
	}
	return errcodes.NotFound("Cover")
}

// page serves a single 1-indexed page image.
func (h *handler) page(c echo.Context) error {
	book, err := h.bookForRequest(c)
	if err != nil {
		return err
	}

	num, err := strconv.Atoi(c.Param("num"))
	if err != nil || num < 1 || num > len(book.PageImagePaths) {
		return errcodes.NotFound("Page")
	}

	return h.serveMedia(c, book.PageImagePaths[num-1])
}

// file serves the source PDF as a download.
func (h *handler) file(c echo.Context) error {
	book, err := h.bookForRequest(c)
	if err != nil {
		return err
	}

	path, err := h.store.Abs(book.PDFPath)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.Attachment(path, book.Slug+".pdf"))
}

func (h *handler) serveMedia(c echo.Context, key string) error {
	path, err := h.store.Abs(key)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.File(path))
}
