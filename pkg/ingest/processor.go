package ingest

import (
	"image"

	"github.com/elibbooks/elib/pkg/models"
)

// Metadata is the descriptive information embedded in a document. Fields are
// empty strings when the document doesn't carry them.
type Metadata struct {
	Title  string
	Author string
}

// Document is an open document handle. Implementations wrap a document
// processing library; the pipeline only ever walks pages sequentially.
type Document interface {
	PageCount() int
	Metadata() Metadata
	// RenderPage rasterizes the 0-indexed page at the given DPI.
	RenderPage(index int, dpi int) (image.Image, error)
	// PageText extracts the plain text of the 0-indexed page.
	PageText(index int) (string, error)
	Close() error
}

// Processor opens documents from a filesystem path.
type Processor interface {
	Open(path string) (Document, error)
}

// Scorer ranks a text blob's terms. Implemented by keywords.Scorer.
type Scorer interface {
	TopKeywords(text string, topk int) []models.Keyword
}
