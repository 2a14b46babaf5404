package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Converter turns a complete HTML document into a PDF.
type Converter interface {
	Convert(ctx context.Context, html []byte) ([]byte, error)
}

// WKHTMLToPDF shells out to wkhtmltopdf, reading HTML on stdin and the PDF
// from stdout.
type WKHTMLToPDF struct {
	Path    string
	Timeout time.Duration
}

// NewWKHTMLToPDF resolves the binary once. When it cannot be found the error
// wraps ErrExportUnavailable.
func NewWKHTMLToPDF(path string, timeout time.Duration) (*WKHTMLToPDF, error) {
	if path == "" {
		path = "wkhtmltopdf"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found: %v", ErrExportUnavailable, path, err)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &WKHTMLToPDF{Path: resolved, Timeout: timeout}, nil
}

// A4 portrait, 10mm margins, 2x rasterisation, jpeg quality 98.
func (w *WKHTMLToPDF) args() []string {
	return []string{
		"--quiet",
		"--encoding", "utf-8",
		"--page-size", "A4",
		"--orientation", "Portrait",
		"--margin-top", "10mm",
		"--margin-bottom", "10mm",
		"--margin-left", "10mm",
		"--margin-right", "10mm",
		"--dpi", "192",
		"--image-dpi", "192",
		"--image-quality", "98",
		"--enable-local-file-access",
		"-", "-",
	}
}

func (w *WKHTMLToPDF) Convert(ctx context.Context, html []byte) ([]byte, error) {
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, w.Path, w.args()...)
	cmd.Stdin = bytes.NewReader(html)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, errors.New("wkhtmltopdf: " + msg)
	}
	if out.Len() == 0 {
		return nil, errors.New("wkhtmltopdf: empty output")
	}
	return out.Bytes(), nil
}
