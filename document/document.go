// Package document opens PDF files with pdfcpu and exposes the page level
// operations the cropper needs: boxes, content enumeration and saving.
package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/wudi/pdfcrop/contentstream"
	"github.com/wudi/pdfcrop/fonts"
	"github.com/wudi/pdfcrop/observability"
	"github.com/wudi/pdfcrop/recovery"
)

var (
	// ErrPageRange is returned for page numbers outside 1..NumPages.
	ErrPageRange = errors.New("page number out of range")
	// ErrNoMediaBox is returned when neither a page nor its ancestors
	// define a usable /MediaBox.
	ErrNoMediaBox = errors.New("page has no media box")
)

type options struct {
	logger   observability.Logger
	password string
	recovery recovery.Strategy
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger used for tolerated content anomalies.
func WithLogger(l observability.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPassword sets the user password for encrypted documents.
func WithPassword(pw string) Option {
	return func(o *options) { o.password = pw }
}

// WithRecovery sets the strategy consulted for malformed page content.
// By default anomalies are logged and tracing continues.
func WithRecovery(s recovery.Strategy) Option {
	return func(o *options) { o.recovery = s }
}

// Document is an open PDF file. Pages are modified in memory and written
// back with Save.
type Document struct {
	path     string
	file     *os.File
	ctx      *model.Context
	log      observability.Logger
	tracer   *contentstream.Tracer
	recovery recovery.Strategy

	fonts map[string]*fonts.Metrics
}

// Open reads and validates the PDF at path. The file stays open until Close.
func Open(path string, opts ...Option) (*Document, error) {
	o := options{logger: observability.NopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if o.password != "" {
		conf.UserPW = o.password
		conf.OwnerPW = o.password
	}

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		f.Close()
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		f.Close()
		return nil, fmt.Errorf("count pages of %s: %w", path, err)
	}

	return &Document{
		path:     path,
		file:     f,
		ctx:      ctx,
		log:      o.logger.With(observability.String("file", path)),
		tracer:   contentstream.NewTracer(),
		recovery: o.recovery,
		fonts:    make(map[string]*fonts.Metrics),
	}, nil
}

// Path returns the path the document was opened from.
func (d *Document) Path() string { return d.path }

// NumPages returns the number of pages.
func (d *Document) NumPages() int { return d.ctx.PageCount }

// Page returns page n, counting from 1.
func (d *Document) Page(n int) (*Page, error) {
	if n < 1 || n > d.NumPages() {
		return nil, fmt.Errorf("page %d of %d: %w", n, d.NumPages(), ErrPageRange)
	}
	dict, _, inh, err := d.ctx.PageDict(n, false)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", n, err)
	}
	if dict == nil {
		return nil, fmt.Errorf("page %d: %w", n, ErrPageRange)
	}
	return &Page{doc: d, num: n, dict: dict, inh: inh}, nil
}

// Save writes the document to path. The file is written next to its
// destination and renamed into place, so path is either fully replaced or
// left untouched.
func (d *Document) Save(path string) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = api.WriteContext(d.ctx, tmp); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
