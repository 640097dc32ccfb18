package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/elibbooks/elib/pkg/errcodes"
	"github.com/elibbooks/elib/pkg/ingest"
	"github.com/elibbooks/elib/pkg/mediastore"
	"github.com/elibbooks/elib/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// derivedColumns are the columns written by the second, best-effort save
// after the ingestion pipeline runs.
var derivedColumns = []string{
	"num_pages",
	"meta_title",
	"meta_author",
	"cover_path",
	"cover_thumb_path",
	"page_image_paths",
	"keywords",
}

type RetrieveBookOptions struct {
	ID   *int
	Slug *string
	// ForUserID populates IsFavorite for this user.
	ForUserID *int
}

type ListBooksOptions struct {
	Limit  *int
	Offset *int
	// Search matches title or author, case-insensitively.
	Search *string
	Genre  *string
	// FavoritesOnly restricts results to books ForUserID has favorited.
	FavoritesOnly bool
	ForUserID     *int

	includeTotal bool
}

type UpdateBookOptions struct {
	Columns []string
}

// Deriver runs the ingestion pipeline. Implemented by ingest.Pipeline.
type Deriver interface {
	Derive(ctx context.Context, slug, pdfKey string) (*ingest.Derived, error)
	Analyze(ctx context.Context, pdfKey string) ([]models.Keyword, error)
}

type Service struct {
	db      *bun.DB
	store   *mediastore.Store
	deriver Deriver
}

func NewService(db *bun.DB, store *mediastore.Store, deriver Deriver) *Service {
	return &Service{db: db, store: store, deriver: deriver}
}

// CreateBook saves the user-supplied fields in a first committed write, then
// runs the derivation pipeline and writes its output as a second partial
// update. Pipeline failures are logged and swallowed so the book always
// exists once the upload itself is valid.
func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt
	if book.PageImagePaths == nil {
		book.PageImagePaths = []string{}
	}
	if book.Keywords == nil {
		book.Keywords = []models.Keyword{}
	}

	if err := svc.assignSlug(ctx, book); err != nil {
		return err
	}

	_, err := svc.db.
		NewInsert().
		Model(book).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	svc.derive(ctx, book)

	return nil
}

// derive runs the pipeline and persists its output. Both steps are best
// effort.
func (svc *Service) derive(ctx context.Context, book *models.Book) {
	log := logger.FromContext(ctx)

	derived, err := svc.deriver.Derive(ctx, book.Slug, book.PDFPath)
	if err != nil {
		log.Err(err).Error("derive book metadata", logger.Data{"book_id": book.ID, "slug": book.Slug})
		return
	}

	book.NumPages = derived.NumPages
	book.MetaTitle = derived.MetaTitle
	book.MetaAuthor = derived.MetaAuthor
	book.CoverPath = derived.CoverPath
	book.CoverThumbPath = derived.CoverThumbPath
	book.PageImagePaths = derived.PageImagePaths
	book.Keywords = derived.Keywords

	err = svc.UpdateBook(ctx, book, UpdateBookOptions{Columns: derivedColumns})
	if err != nil {
		log.Err(err).Error("save derived book metadata", logger.Data{"book_id": book.ID, "slug": book.Slug})
	}
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Relation("Uploader")

	if opts.ForUserID != nil {
		q = q.ColumnExpr("b.*").
			ColumnExpr("EXISTS (SELECT 1 FROM book_favorites bf WHERE bf.book_id = b.id AND bf.user_id = ?) AS is_favorite", *opts.ForUserID)
	}

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}
	if opts.Slug != nil {
		q = q.Where("b.slug = ?", *opts.Slug)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Uploader").
		Order("b.title ASC")

	if opts.ForUserID != nil {
		q = q.ColumnExpr("b.*").
			ColumnExpr("EXISTS (SELECT 1 FROM book_favorites bf WHERE bf.book_id = b.id AND bf.user_id = ?) AS is_favorite", *opts.ForUserID)
	}

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.Search != nil && *opts.Search != "" {
		search := "%" + *opts.Search + "%"
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.
				Where("b.title LIKE ? COLLATE NOCASE", search).
				WhereOr("b.author LIKE ? COLLATE NOCASE", search)
		})
	}
	if opts.Genre != nil && *opts.Genre != "" {
		q = q.Where("b.genre = ?", *opts.Genre)
	}
	if opts.FavoritesOnly && opts.ForUserID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM book_favorites bf WHERE bf.book_id = b.id AND bf.user_id = ?)", *opts.ForUserID)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	book.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Book")
		}
		return errors.WithStack(err)
	}

	return nil
}

// ReplacePDF swaps in a new source document and re-runs the derivation
// phase. The slug is left untouched.
func (svc *Service) ReplacePDF(ctx context.Context, book *models.Book, pdfKey string) error {
	log := logger.FromContext(ctx)

	oldKey := book.PDFPath
	book.PDFPath = pdfKey

	err := svc.UpdateBook(ctx, book, UpdateBookOptions{Columns: []string{"pdf_path"}})
	if err != nil {
		return err
	}

	if oldKey != "" && oldKey != pdfKey {
		if err := svc.store.Remove(oldKey); err != nil {
			log.Err(err).Warn("remove replaced pdf", logger.Data{"key": oldKey})
		}
	}

	svc.derive(ctx, book)

	return nil
}

// DeleteBook removes the row (favorites cascade) along with the source PDF
// and cover thumbnail. Page images are deliberately left on disk: slugs are
// never reused, so nothing ever resolves to them again, and the first page
// image doubles as the cover file.
func (svc *Service) DeleteBook(ctx context.Context, book *models.Book) error {
	log := logger.FromContext(ctx)

	_, err := svc.db.
		NewDelete().
		Model(book).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	if book.PDFPath != "" {
		if err := svc.store.Remove(book.PDFPath); err != nil {
			log.Err(err).Warn("remove pdf", logger.Data{"key": book.PDFPath})
		}
	}
	if book.CoverThumbPath != nil {
		if err := svc.store.Remove(*book.CoverThumbPath); err != nil {
			log.Err(err).Warn("remove cover thumb", logger.Data{"key": *book.CoverThumbPath})
		}
	}

	return nil
}

// ToggleFavorite flips whether the user has favorited the book and returns
// the new state.
func (svc *Service) ToggleFavorite(ctx context.Context, bookID, userID int) (bool, error) {
	res, err := svc.db.
		NewDelete().
		Model((*models.BookFavorite)(nil)).
		Where("book_id = ?", bookID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return false, errors.WithStack(err)
	}
	if deleted > 0 {
		return false, nil
	}

	fav := &models.BookFavorite{BookID: bookID, UserID: userID}
	_, err = svc.db.NewInsert().Model(fav).Exec(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}

	return true, nil
}

// Analyze re-runs keyword extraction for the book without persisting
// anything.
func (svc *Service) Analyze(ctx context.Context, book *models.Book) ([]models.Keyword, error) {
	return svc.deriver.Analyze(ctx, book.PDFPath)
}
