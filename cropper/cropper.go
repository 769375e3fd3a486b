// Package cropper sets each page's CropBox to the region that carries
// visible content, plus a margin.
package cropper

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/wudi/pdfcrop/document"
	"github.com/wudi/pdfcrop/extractor"
	"github.com/wudi/pdfcrop/geo"
	"github.com/wudi/pdfcrop/observability"
)

// DefaultMargin is the padding, in points, added around the content box.
const DefaultMargin = 5.0

// ErrMargin is returned for a negative or non-finite margin.
var ErrMargin = errors.New("margin must be a finite non-negative number")

// Config controls cropping.
type Config struct {
	Margin float64
}

// DefaultConfig returns the configuration used by CropFile.
func DefaultConfig() Config {
	return Config{Margin: DefaultMargin}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if math.IsNaN(c.Margin) || math.IsInf(c.Margin, 0) || c.Margin < 0 {
		return fmt.Errorf("margin %v: %w", c.Margin, ErrMargin)
	}
	return nil
}

// Page is a page the cropper can measure and modify.
type Page interface {
	extractor.Page
	MediaBox() (geo.Rectangle, error)
	SetCropBox(r geo.Rectangle) error
}

// PageSource enumerates pages, numbered from 1.
type PageSource interface {
	NumPages() int
	Page(n int) (Page, error)
}

// Option configures a Cropper.
type Option func(*Cropper)

// WithLogger sets the logger for per-page outcomes.
func WithLogger(l observability.Logger) Option {
	return func(c *Cropper) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTracer sets the tracer that receives file, page and save spans.
func WithTracer(t observability.Tracer) Option {
	return func(c *Cropper) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithDocumentOptions passes options to document.Open in CropFile, e.g. a
// password or a recovery strategy for malformed content.
func WithDocumentOptions(opts ...document.Option) Option {
	return func(c *Cropper) { c.docOpts = append(c.docOpts, opts...) }
}

// Cropper applies content crop boxes page by page.
type Cropper struct {
	cfg     Config
	log     observability.Logger
	tracer  observability.Tracer
	docOpts []document.Option
}

// New returns a Cropper for cfg.
func New(cfg Config, opts ...Option) (*Cropper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Cropper{
		cfg:    cfg,
		log:    observability.NopLogger{},
		tracer: observability.NopTracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CropFile crops input with the default configuration and writes output.
func CropFile(ctx context.Context, input, output string, opts ...Option) (*Report, error) {
	c, err := New(DefaultConfig(), opts...)
	if err != nil {
		return nil, err
	}
	return c.CropFile(ctx, input, output)
}

// CropPage computes and applies the crop box of one page. Pages without
// content or with a degenerate crop are left unchanged and reported as
// skipped; the returned error is reserved for collaborator failures.
func (c *Cropper) CropPage(p Page) (PageResult, error) {
	var res PageResult

	content, ok, err := extractor.ContentBBox(p)
	if err != nil {
		return res, fmt.Errorf("extract content: %w", err)
	}
	if !ok {
		res.Outcome = OutcomeNoContent
		res.Reason = ReasonNoContent
		return res, nil
	}
	res.Content = content

	media, err := p.MediaBox()
	if err != nil {
		return res, err
	}
	crop := content.Expand(c.cfg.Margin).Clamp(media)
	res.Crop = crop
	if !crop.Valid() {
		res.Outcome = OutcomeInvalidCrop
		res.Reason = ReasonInvalidCrop
		return res, nil
	}

	if err := p.SetCropBox(crop); err != nil {
		return res, fmt.Errorf("set crop box: %w", err)
	}
	res.Outcome = OutcomeCropped
	return res, nil
}

// Crop runs CropPage over every page of src in order. It stops at the first
// collaborator error; the report then covers the pages processed so far.
func (c *Cropper) Crop(ctx context.Context, src PageSource) (*Report, error) {
	rep := &Report{}
	for n := 1; n <= src.NumPages(); n++ {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		res, err := c.cropPageN(ctx, src, n)
		if err != nil {
			return rep, fmt.Errorf("page %d: %w", n, err)
		}
		rep.Pages = append(rep.Pages, res)
		c.logResult(res)
	}
	return rep, nil
}

func (c *Cropper) cropPageN(ctx context.Context, src PageSource, n int) (res PageResult, err error) {
	_, span := c.tracer.StartSpan(ctx, observability.SpanCropPage)
	span.SetTag("page", n)
	defer func() {
		span.SetTag("outcome", res.Outcome.String())
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	p, err := src.Page(n)
	if err != nil {
		return res, err
	}
	res, err = c.CropPage(p)
	res.Page = n
	return res, err
}

func (c *Cropper) logResult(res PageResult) {
	log := c.log.With(observability.Int("page", res.Page))
	switch res.Outcome {
	case OutcomeCropped:
		log.Debug("content box", observability.String("content", res.Content.String()))
		log.Info("cropped", observability.String("crop", res.Crop.String()),
			observability.Float64("width", res.Crop.Width()), observability.Float64("height", res.Crop.Height()))
	case OutcomeInvalidCrop:
		log.Info(res.Reason+", skipping", observability.String("crop", res.Crop.String()))
	default:
		log.Info(res.Reason + ", skipping")
	}
}

// CropFile opens input, crops every page and saves the result to output.
// Nothing is written when any page fails.
func (c *Cropper) CropFile(ctx context.Context, input, output string) (rep *Report, err error) {
	ctx, span := c.tracer.StartSpan(ctx, observability.SpanCropFile)
	span.SetTag("input", input)
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	opts := append([]document.Option{document.WithLogger(c.log)}, c.docOpts...)
	doc, err := document.Open(input, opts...)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	rep, err = c.Crop(ctx, documentSource{doc})
	if err != nil {
		return rep, err
	}
	rep.Input = doc.Path()

	_, saveSpan := c.tracer.StartSpan(ctx, observability.SpanSave)
	err = doc.Save(output)
	if err != nil {
		saveSpan.SetError(err)
	}
	saveSpan.Finish()
	if err != nil {
		return rep, fmt.Errorf("save %s: %w", output, err)
	}
	rep.Output = output
	c.log.Info("saved cropped PDF", observability.String("output", output))
	return rep, nil
}

// documentSource adapts *document.Document to PageSource.
type documentSource struct{ doc *document.Document }

func (s documentSource) NumPages() int { return s.doc.NumPages() }

func (s documentSource) Page(n int) (Page, error) {
	p, err := s.doc.Page(n)
	if err != nil {
		return nil, err
	}
	return p, nil
}
