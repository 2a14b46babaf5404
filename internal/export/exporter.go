// Package export produces worksheet artifacts: a print-ready HTML document,
// its PDF conversion and a plain-text transcript.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-worksheets/internal/question"
	"github.com/mind-engage/mindengage-worksheets/internal/sanitize"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatText Format = "txt"
	FormatHTML Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPDF, FormatText, FormatHTML:
		return Format(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

func (f Format) Ext() string { return string(f) }

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

var (
	// ErrExportUnavailable means no PDF converter was configured at startup.
	ErrExportUnavailable = errors.New("document export unavailable")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

type Options struct {
	Format         Format
	IncludeAnswers bool
	Filename       string
}

type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Renderer is the subset of the equation renderer the exporter needs.
type Renderer interface {
	Render(text string) string
	Plain(text string) string
}

type Exporter struct {
	renderer  Renderer
	policy    *sanitize.Policy
	converter Converter
	images    *ImageEmbedder
	mathCSS   string
	now       func() time.Time
	log       *zap.Logger
	observe   func(Format, error)
}

type Option func(*Exporter)

// WithConverter sets the PDF converter. A nil converter makes every PDF
// export fail with ErrExportUnavailable.
func WithConverter(c Converter) Option { return func(e *Exporter) { e.converter = c } }

func WithImages(m *ImageEmbedder) Option { return func(e *Exporter) { e.images = m } }

func WithMathStylesheet(url string) Option { return func(e *Exporter) { e.mathCSS = url } }

func WithClock(now func() time.Time) Option { return func(e *Exporter) { e.now = now } }

func WithLogger(l *zap.Logger) Option { return func(e *Exporter) { e.log = l } }

// WithObserver is called after every Export with its format and outcome.
func WithObserver(fn func(Format, error)) Option { return func(e *Exporter) { e.observe = fn } }

func New(r Renderer, p *sanitize.Policy, opts ...Option) *Exporter {
	e := &Exporter{
		renderer: r,
		policy:   p,
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// CanConvert reports whether PDF export is available.
func (e *Exporter) CanConvert() bool { return e.converter != nil }

func (e *Exporter) Export(ctx context.Context, topic string, qs []question.Question, opts Options) (a Artifact, err error) {
	defer func() {
		if e.observe != nil {
			e.observe(opts.Format, err)
		}
	}()

	name := Filename(topic, opts.Filename, opts.Format, e.now())
	switch opts.Format {
	case FormatText:
		return Artifact{Filename: name, ContentType: opts.Format.ContentType(), Body: e.Text(topic, qs, opts.IncludeAnswers)}, nil

	case FormatHTML:
		doc, err := e.Document(ctx, topic, qs, opts.IncludeAnswers)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{Filename: name, ContentType: opts.Format.ContentType(), Body: doc}, nil

	case FormatPDF:
		if e.converter == nil {
			return Artifact{}, ErrExportUnavailable
		}
		doc, err := e.Document(ctx, topic, qs, opts.IncludeAnswers)
		if err != nil {
			return Artifact{}, err
		}
		start := time.Now()
		pdf, err := e.converter.Convert(ctx, doc)
		if err != nil {
			return Artifact{}, fmt.Errorf("convert to pdf: %w", err)
		}
		e.log.Debug("pdf converted",
			zap.String("file", name),
			zap.Int("bytes", len(pdf)),
			zap.Duration("took", time.Since(start)))
		return Artifact{Filename: name, ContentType: opts.Format.ContentType(), Body: pdf}, nil
	}
	return Artifact{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
}
