package books

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elibbooks/elib/internal/testgen"
	"github.com/elibbooks/elib/pkg/auth"
	"github.com/elibbooks/elib/pkg/binder"
	"github.com/elibbooks/elib/pkg/errcodes"
	"github.com/elibbooks/elib/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle
	return e
}

func newJSONContext(t *testing.T, payload, method, path string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	return newTestEcho(t).NewContext(req, rr), rr
}

// newUploadContext builds a multipart book upload request.
func newUploadContext(t *testing.T, fields map[string]string, pdf []byte) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	if pdf != nil {
		part, err := mw.CreateFormFile("pdf", "upload.pdf")
		require.NoError(t, err)
		_, err = io.Copy(part, bytes.NewReader(pdf))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/books", body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rr := httptest.NewRecorder()
	return newTestEcho(t).NewContext(req, rr), rr
}

func TestHandlerCreate(t *testing.T) {
	t.Parallel()
	svc, store, db := setupTestService(t, nil)
	h := &handler{bookService: svc, store: store}
	user := createTestUser(t, db, "budi")

	c, rr := newUploadContext(t, map[string]string{
		"title":       "Laskar Pelangi",
		"author":      "Andrea Hirata",
		"description": "<p>Sebuah <b>novel</b>.</p>",
		"genre":       "Fiction",
	}, testgen.MinimalPDF())
	c.Set(auth.ContextKeyUser, user)
	c.Set(auth.ContextKeyUserID, user.ID)

	require.NoError(t, h.create(c))
	assert.Equal(t, http.StatusCreated, rr.Code)

	var book models.Book
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &book))
	assert.Equal(t, "laskar-pelangi", book.Slug)
	assert.Equal(t, "Andrea Hirata", book.Author)
	// HTML is stripped from descriptions.
	assert.Equal(t, "Sebuah novel.", book.Description)
	assert.True(t, store.Exists(book.PDFPath))
}

func TestHandlerCreateRequiresPDF(t *testing.T) {
	t.Parallel()
	svc, store, db := setupTestService(t, nil)
	h := &handler{bookService: svc, store: store}
	user := createTestUser(t, db, "budi")

	c, _ := newUploadContext(t, map[string]string{"title": "Tanpa Berkas"}, nil)
	c.Set(auth.ContextKeyUser, user)
	c.Set(auth.ContextKeyUserID, user.ID)

	err := h.create(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.ValidationError("A PDF file is required."))
}

func TestHandlerCreateRejectsNonPDF(t *testing.T) {
	t.Parallel()
	svc, store, db := setupTestService(t, nil)
	h := &handler{bookService: svc, store: store}
	user := createTestUser(t, db, "budi")

	c, _ := newUploadContext(t, map[string]string{"title": "Bukan PDF"}, []byte("plain text, bukan pdf"))
	c.Set(auth.ContextKeyUser, user)
	c.Set(auth.ContextKeyUserID, user.ID)

	err := h.create(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.ValidationError("Uploaded file must be a PDF."))

	// No partial state: no rows, no stored files.
	count, err := db.NewSelect().Model((*models.Book)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHandlerUpdatePermissions(t *testing.T) {
	t.Parallel()
	svc, store, db := setupTestService(t, nil)
	h := &handler{bookService: svc, store: store}
	owner := createTestUser(t, db, "budi")
	stranger := createTestUser(t, db, "citra")

	book := newBook("Milik Budi", owner.ID)
	require.NoError(t, svc.CreateBook(context.Background(), book))

	// A stranger can't edit.
	c, _ := newJSONContext(t, `{"title":"Diubah"}`, http.MethodPost, "/books/:slug")
	c.SetParamNames("slug")
	c.SetParamValues(book.Slug)
	c.Set(auth.ContextKeyUser, stranger)
	c.Set(auth.ContextKeyUserID, stranger.ID)

	err := h.update(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.Forbidden("Editing another user's book"))

	// The owner can.
	c, rr := newJSONContext(t, `{"title":"Diubah"}`, http.MethodPost, "/books/:slug")
	c.SetParamNames("slug")
	c.SetParamValues(book.Slug)
	c.Set(auth.ContextKeyUser, owner)
	c.Set(auth.ContextKeyUserID, owner.ID)

	require.NoError(t, h.update(c))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"Diubah"`)
	assert.Contains(t, rr.Body.String(), book.Slug)
}

func TestHandlerUpdateSkipsUnchangedYear(t *testing.T) {
	t.Parallel()
	svc, store, db := setupTestService(t, nil)
	h := &handler{bookService: svc, store: store}
	owner := createTestUser(t, db, "budi")

	year := 2005
	book := newBook("Milik Budi", owner.ID)
	book.Year = &year
	require.NoError(t, svc.CreateBook(context.Background(), book))

	before, err := svc.RetrieveBook(context.Background(), RetrieveBookOptions{ID: &book.ID})
	require.NoError(t, err)

	// Re-submitting the current year is a no-op and must not rewrite the row.
	c, rr := newJSONContext(t, `{"year":2005}`, http.MethodPost, "/books/:slug")
	c.SetParamNames("slug")
	c.SetParamValues(book.Slug)
	c.Set(auth.ContextKeyUser, owner)
	c.Set(auth.ContextKeyUserID, owner.ID)

	require.NoError(t, h.update(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	after, err := svc.RetrieveBook(context.Background(), RetrieveBookOptions{ID: &book.ID})
	require.NoError(t, err)
	require.NotNil(t, after.Year)
	assert.Equal(t, 2005, *after.Year)
	assert.True(t, after.UpdatedAt.Equal(before.UpdatedAt))
}

func TestHandlerDeletePermissions(t *testing.T) {
	t.Parallel()
	svc, store, db := setupTestService(t, nil)
	h := &handler{bookService: svc, store: store}
	owner := createTestUser(t, db, "budi")
	admin := createTestUser(t, db, "admin")
	_, err := db.NewUpdate().Model((*models.User)(nil)).
		Set("is_admin = ?", true).Where("id = ?", admin.ID).Exec(context.Background())
	require.NoError(t, err)
	admin.IsAdmin = true

	book := newBook("Dihapus Admin", owner.ID)
	require.NoError(t, svc.CreateBook(context.Background(), book))

	// Admins can delete anyone's book.
	c, rr := newJSONContext(t, "", http.MethodDelete, "/books/:slug")
	c.SetParamNames("slug")
	c.SetParamValues(book.Slug)
	c.Set(auth.ContextKeyUser, admin)
	c.Set(auth.ContextKeyUserID, admin.ID)

	require.NoError(t, h.delete(c))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	_, err = svc.RetrieveBook(context.Background(), RetrieveBookOptions{ID: &book.ID})
	assert.ErrorIs(t, err, errcodes.NotFound("Book"))
}

func TestHandlerFavorite(t *testing.T) {
	t.Parallel()
	svc, store, db := setupTestService(t, nil)
	h := &handler{bookService: svc, store: store}
	user := createTestUser(t, db, "budi")

	book := newBook("Favorit", user.ID)
	require.NoError(t, svc.CreateBook(context.Background(), book))

	c, rr := newJSONContext(t, "", http.MethodPost, "/books/:slug/favorite")
	c.SetParamNames("slug")
	c.SetParamValues(book.Slug)
	c.Set(auth.ContextKeyUser, user)
	c.Set(auth.ContextKeyUserID, user.ID)

	require.NoError(t, h.favorite(c))
	assert.JSONEq(t, `{"is_favorite":true}`, rr.Body.String())

	c, rr = newJSONContext(t, "", http.MethodPost, "/books/:slug/favorite")
	c.SetParamNames("slug")
	c.SetParamValues(book.Slug)
	c.Set(auth.ContextKeyUser, user)
	c.Set(auth.ContextKeyUserID, user.ID)

	require.NoError(t, h.favorite(c))
	assert.JSONEq(t, `{"is_favorite":false}`, rr.Body.String())
}

func TestHandlerPageNotFound(t *testing.T) {
	t.Parallel()
	svc, store, db := setupTestService(t, nil)
	h := &handler{bookService: svc, store: store}
	user := createTestUser(t, db, "budi")

	book := newBook("Tanpa Halaman", user.ID)
	require.NoError(t, svc.CreateBook(context.Background(), book))

	for _, num := range []string{"0", "1", "abc"} {
		c, _ := newJSONContext(t, "", http.MethodGet, "/books/:slug/pages/:num")
		c.SetParamNames("slug", "num")
		c.SetParamValues(book.Slug, num)

		err := h.page(c)
		require.Error(t, err)
		assert.ErrorIs(t, err, errcodes.NotFound("Page"))
	}
}
