package pdf

import (
	"image"
	"image/draw"
	"time"

	"github.com/elibbooks/elib/pkg/ingest"
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
	"github.com/pkg/errors"
)

const instanceTimeout = 30 * time.Second

// NewPool starts the WebAssembly PDFium runtime. Initialization is expensive,
// so callers create one pool at startup and share it for the process lifetime.
func NewPool(maxTotal int) (pdfium.Pool, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: maxTotal,
	})
	return pool, errors.WithStack(err)
}

// Processor opens PDF files through a shared PDFium pool. It satisfies
// ingest.Processor.
type Processor struct {
	pool pdfium.Pool
}

func NewProcessor(pool pdfium.Pool) *Processor {
	return &Processor{pool: pool}
}

// Open loads the PDF at path. The returned document holds a PDFium worker
// instance until Close is called.
func (p *Processor) Open(path string) (ingest.Document, error) {
	instance, err := p.pool.GetInstance(instanceTimeout)
	if err != nil {
		return nil, errors.Wrap(err, "acquire pdfium instance")
	}

	opened, err := instance.OpenDocument(&requests.OpenDocument{FilePath: &path})
	if err != nil {
		instance.Close() //nolint:errcheck
		return nil, errors.Wrap(err, "open pdf")
	}

	doc := &document{instance: instance, ref: opened.Document}

	count, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{Document: opened.Document})
	if err != nil {
		doc.Close() //nolint:errcheck
		return nil, errors.Wrap(err, "page count")
	}
	doc.pageCount = count.PageCount
	doc.meta = readMetadata(instance, opened.Document)

	return doc, nil
}

type document struct {
	instance  pdfium.Pdfium
	ref       references.FPDF_DOCUMENT
	pageCount int
	meta      ingest.Metadata
}

func (d *document) PageCount() int            { return d.pageCount }
func (d *document) Metadata() ingest.Metadata { return d.meta }

func (d *document) RenderPage(index, dpi int) (image.Image, error) {
	res, err := d.instance.RenderPageInDPI(&requests.RenderPageInDPI{
		DPI:  dpi,
		Page: d.page(index),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "render page %d", index)
	}
	defer res.Cleanup()

	// The render buffer is reclaimed by Cleanup, so hand back a copy.
	src := res.Result.Image
	img := image.NewRGBA(src.Bounds())
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)
	return img, nil
}

func (d *document) PageText(index int) (string, error) {
	res, err := d.instance.GetPageText(&requests.GetPageText{Page: d.page(index)})
	if err != nil {
		return "", errors.Wrapf(err, "page text %d", index)
	}
	return res.Text, nil
}

func (d *document) Close() error {
	_, err := d.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: d.ref})
	if cerr := d.instance.Close(); err == nil {
		err = cerr
	}
	return errors.WithStack(err)
}

func (d *document) page(index int) requests.Page {
	return requests.Page{
		ByIndex: &requests.PageByIndex{
			Document: d.ref,
			Index:    index,
		},
	}
}

func readMetadata(instance pdfium.Pdfium, ref references.FPDF_DOCUMENT) ingest.Metadata {
	var meta ingest.Metadata

	res, err := instance.GetMetaData(&requests.GetMetaData{Document: ref})
	if err != nil {
		return meta
	}
	for _, tag := range res.Tags {
		switch tag.Tag {
		case "Title":
			meta.Title = tag.Value
		case "Author":
			meta.Author = tag.Value
		}
	}
	return meta
}
