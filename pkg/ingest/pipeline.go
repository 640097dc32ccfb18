package ingest

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/elibbooks/elib/pkg/mediastore"
	"github.com/elibbooks/elib/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"golang.org/x/image/draw"
)

const thumbWidth = 320

// Config controls the derivation pipeline.
type Config struct {
	// RenderDPI is the resolution page images are rasterized at.
	RenderDPI int
	// KeywordCount is how many ranked keywords to keep per book.
	KeywordCount int
}

// Derived is everything the pipeline computes from a book's source file. The
// caller persists it in a second save; a failed pipeline run leaves the book
// with its user-supplied fields only.
type Derived struct {
	NumPages       int
	MetaTitle      string
	MetaAuthor     string
	CoverPath      *string
	CoverThumbPath *string
	PageImagePaths []string
	Keywords       []models.Keyword
}

// Pipeline derives page images, cover art, embedded metadata, and keywords
// from an uploaded document. It's synchronous today; keeping it behind this
// type means it can move behind a job queue without touching callers.
type Pipeline struct {
	cfg    Config
	store  *mediastore.Store
	proc   Processor
	scorer Scorer
}

func NewPipeline(cfg Config, store *mediastore.Store, proc Processor, scorer Scorer) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		store:  store,
		proc:   proc,
		scorer: scorer,
	}
}

// Derive runs the full pipeline for the document stored at pdfKey. It only
// fails outright when the document can't be opened at all; rasterization and
// text extraction failures degrade to missing cover/pages/keywords so the
// book itself still exists.
func (p *Pipeline) Derive(ctx context.Context, slug, pdfKey string) (*Derived, error) {
	log := logger.FromContext(ctx)

	path, err := p.store.Abs(pdfKey)
	if err != nil {
		return nil, err
	}

	doc, err := p.proc.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open document")
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			log.Err(cerr).Warn("close document")
		}
	}()

	md := doc.Metadata()
	derived := &Derived{
		NumPages:       doc.PageCount(),
		MetaTitle:      md.Title,
		MetaAuthor:     md.Author,
		PageImagePaths: []string{},
		Keywords:       []models.Keyword{},
	}

	if err := p.renderPages(doc, slug, derived); err != nil {
		// Partial page files may remain on disk; the book record never
		// references them.
		log.Err(err).Error("render pages")
		derived.CoverPath = nil
		derived.CoverThumbPath = nil
		derived.PageImagePaths = []string{}
	}

	derived.Keywords = p.scorer.TopKeywords(p.extractText(ctx, doc), p.cfg.KeywordCount)

	return derived, nil
}

// Analyze re-runs keyword extraction for the document stored at pdfKey
// without touching page images. Used by the on-demand analyze endpoint.
func (p *Pipeline) Analyze(ctx context.Context, pdfKey string) ([]models.Keyword, error) {
	path, err := p.store.Abs(pdfKey)
	if err != nil {
		return nil, err
	}

	doc, err := p.proc.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open document")
	}
	defer doc.Close() //nolint:errcheck

	return p.scorer.TopKeywords(p.extractText(ctx, doc), p.cfg.KeywordCount), nil
}

func (p *Pipeline) renderPages(doc Document, slug string, derived *Derived) error {
	count := doc.PageCount()
	if count == 0 {
		return nil
	}

	paths := make([]string, 0, count)
	var cover image.Image

	for i := 0; i < count; i++ {
		img, err := doc.RenderPage(i, p.cfg.RenderDPI)
		if err != nil {
			return errors.Wrapf(err, "render page %d", i+1)
		}

		key := PageImageKey(slug, i+1)
		if err := p.writePNG(key, img); err != nil {
			return err
		}

		paths = append(paths, key)
		if i == 0 {
			cover = img
		}
	}

	derived.PageImagePaths = paths
	derived.CoverPath = &paths[0]

	// The thumbnail is a nicety; losing it never fails the run.
	if key, err := p.writeThumb(slug, cover); err == nil {
		derived.CoverThumbPath = &key
	}

	return nil
}

func (p *Pipeline) writeThumb(slug string, cover image.Image) (string, error) {
	bounds := cover.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return "", errors.New("empty cover image")
	}

	height := bounds.Dy() * thumbWidth / bounds.Dx()
	if height == 0 {
		height = 1
	}

	thumb := image.NewRGBA(image.Rect(0, 0, thumbWidth, height))
	draw.CatmullRom.Scale(thumb, thumb.Bounds(), cover, bounds, draw.Over, nil)

	key := CoverThumbKey(slug)
	if err := p.writePNG(key, thumb); err != nil {
		return "", err
	}
	return key, nil
}

func (p *Pipeline) writePNG(key string, img image.Image) error {
	f, err := p.store.Create(key)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close() //nolint:errcheck
		return errors.Wrapf(err, "encode %s", key)
	}
	return errors.WithStack(f.Close())
}

// extractText concatenates the text of every page. Any page-level failure
// collapses the whole extraction to an empty string, which in turn yields an
// empty keyword list.
func (p *Pipeline) extractText(ctx context.Context, doc Document) string {
	log := logger.FromContext(ctx)

	var sb strings.Builder
	for i := 0; i < doc.PageCount(); i++ {
		text, err := doc.PageText(i)
		if err != nil {
			log.Err(err).Warn("extract page text")
			return ""
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// PageImageKey is the media store key for a book's 1-indexed page image.
func PageImageKey(slug string, page int) string {
	return fmt.Sprintf("page_images/%s/%s_page_%d.png", slug, slug, page)
}

// CoverThumbKey is the media store key for a book's cover thumbnail.
func CoverThumbKey(slug string) string {
	return fmt.Sprintf("covers/%s_thumb.png", slug)
}
