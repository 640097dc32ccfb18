package ingest

import (
	"context"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/elibbooks/elib/pkg/keywords"
	"github.com/elibbooks/elib/pkg/mediastore"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDocument struct {
	pages      int
	meta       Metadata
	texts      []string
	renderErr  error
	textErr    error
	closed     bool
	renderSize image.Rectangle
}

func (d *stubDocument) PageCount() int     { return d.pages }
func (d *stubDocument) Metadata() Metadata { return d.meta }

func (d *stubDocument) RenderPage(index, dpi int) (image.Image, error) {
	if d.renderErr != nil {
		return nil, d.renderErr
	}
	size := d.renderSize
	if size.Empty() {
		size = image.Rect(0, 0, 40, 60)
	}
	img := image.NewRGBA(size)
	img.Set(0, 0, color.RGBA{R: uint8(index), A: 255})
	return img, nil
}

func (d *stubDocument) PageText(index int) (string, error) {
	if d.textErr != nil {
		return "", d.textErr
	}
	if index < len(d.texts) {
		return d.texts[index], nil
	}
	return "", nil
}

func (d *stubDocument) Close() error {
	d.closed = true
	return nil
}

type stubProcessor struct {
	doc     *stubDocument
	openErr error
}

func (p *stubProcessor) Open(path string) (Document, error) {
	if p.openErr != nil {
		return nil, p.openErr
	}
	return p.doc, nil
}

func newTestPipeline(t *testing.T, proc Processor) (*Pipeline, *mediastore.Store) {
	t.Helper()

	store, err := mediastore.New(t.TempDir())
	require.NoError(t, err)

	scorer := keywords.NewScorer(keywords.DefaultStopWords(), 2000)
	return NewPipeline(Config{RenderDPI: 150, KeywordCount: 10}, store, proc, scorer), store
}

func seedPDF(t *testing.T, store *mediastore.Store, key string) {
	t.Helper()
	require.NoError(t, store.Save(key, strings.NewReader("%PDF-1.4 stub")))
}

func TestPipelineDerive(t *testing.T) {
	t.Parallel()

	doc := &stubDocument{
		pages: 3,
		meta:  Metadata{Title: "Laskar Pelangi", Author: "Andrea Hirata"},
		texts: []string{"kucing kucing kucing", "anjing anjing", "burung"},
	}
	p, store := newTestPipeline(t, &stubProcessor{doc: doc})
	seedPDF(t, store, "pdfs/test.pdf")

	derived, err := p.Derive(context.Background(), "laskar-pelangi", "pdfs/test.pdf")
	require.NoError(t, err)

	assert.Equal(t, 3, derived.NumPages)
	assert.Equal(t, "Laskar Pelangi", derived.MetaTitle)
	assert.Equal(t, "Andrea Hirata", derived.MetaAuthor)

	require.Len(t, derived.PageImagePaths, 3)
	assert.Equal(t, "page_images/laskar-pelangi/laskar-pelangi_page_1.png", derived.PageImagePaths[0])
	assert.Equal(t, "page_images/laskar-pelangi/laskar-pelangi_page_3.png", derived.PageImagePaths[2])
	for _, key := range derived.PageImagePaths {
		assert.True(t, store.Exists(key), key)
	}

	require.NotNil(t, derived.CoverPath)
	assert.Equal(t, derived.PageImagePaths[0], *derived.CoverPath)
	require.NotNil(t, derived.CoverThumbPath)
	assert.Equal(t, "covers/laskar-pelangi_thumb.png", *derived.CoverThumbPath)
	assert.True(t, store.Exists(*derived.CoverThumbPath))

	require.NotEmpty(t, derived.Keywords)
	assert.Equal(t, "kucing", derived.Keywords[0].Word)

	assert.True(t, doc.closed)
}

func TestPipelineDeriveZeroPages(t *testing.T) {
	t.Parallel()

	doc := &stubDocument{pages: 0}
	p, store := newTestPipeline(t, &stubProcessor{doc: doc})
	seedPDF(t, store, "pdfs/empty.pdf")

	derived, err := p.Derive(context.Background(), "empty", "pdfs/empty.pdf")
	require.NoError(t, err)

	assert.Equal(t, 0, derived.NumPages)
	assert.Nil(t, derived.CoverPath)
	assert.Nil(t, derived.CoverThumbPath)
	assert.Empty(t, derived.PageImagePaths)
	assert.Empty(t, derived.Keywords)
}

func TestPipelineDeriveOpenError(t *testing.T) {
	t.Parallel()

	p, store := newTestPipeline(t, &stubProcessor{openErr: errors.New("corrupt file")})
	seedPDF(t, store, "pdfs/bad.pdf")

	derived, err := p.Derive(context.Background(), "bad", "pdfs/bad.pdf")
	assert.Error(t, err)
	assert.Nil(t, derived)
}

func TestPipelineDeriveRenderError(t *testing.T) {
	t.Parallel()

	doc := &stubDocument{
		pages:     2,
		texts:     []string{"kucing kucing", "anjing"},
		renderErr: errors.New("render failed"),
	}
	p, store := newTestPipeline(t, &stubProcessor{doc: doc})
	seedPDF(t, store, "pdfs/render.pdf")

	derived, err := p.Derive(context.Background(), "render", "pdfs/render.pdf")
	require.NoError(t, err)

	// Rasterization failures degrade; text-derived fields survive.
	assert.Equal(t, 2, derived.NumPages)
	assert.Nil(t, derived.CoverPath)
	assert.Empty(t, derived.PageImagePaths)
	require.NotEmpty(t, derived.Keywords)
	assert.Equal(t, "kucing", derived.Keywords[0].Word)
}

func TestPipelineDeriveTextError(t *testing.T) {
	t.Parallel()

	doc := &stubDocument{
		pages:   1,
		textErr: errors.New("text extraction failed"),
	}
	p, store := newTestPipeline(t, &stubProcessor{doc: doc})
	seedPDF(t, store, "pdfs/text.pdf")

	derived, err := p.Derive(context.Background(), "text", "pdfs/text.pdf")
	require.NoError(t, err)

	assert.Empty(t, derived.Keywords)
	require.NotNil(t, derived.CoverPath)
	assert.Len(t, derived.PageImagePaths, 1)
}

func TestPipelineAnalyze(t *testing.T) {
	t.Parallel()

	doc := &stubDocument{
		pages: 2,
		texts: []string{"harimau harimau harimau", "gajah"},
	}
	p, store := newTestPipeline(t, &stubProcessor{doc: doc})
	seedPDF(t, store, "pdfs/analyze.pdf")

	kws, err := p.Analyze(context.Background(), "pdfs/analyze.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, kws)
	assert.Equal(t, "harimau", kws[0].Word)

	// Analyze never writes page images.
	assert.False(t, store.Exists("page_images/analyze/analyze_page_1.png"))
}

func TestPageImageKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "page_images/buku/buku_page_12.png", PageImageKey("buku", 12))
	assert.Equal(t, "covers/buku_thumb.png", CoverThumbKey("buku"))
}
