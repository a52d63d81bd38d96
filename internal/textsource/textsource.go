// Package textsource turns a source document into raw text for extraction.
package textsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrNoText is returned when a document cannot be opened or read. A readable
// document with an empty text layer is not an error.
var ErrNoText = errors.New("no text extracted")

// Source supplies the raw text of one document.
type Source interface {
	Text(ctx context.Context, path string) (string, error)
}

// Runner lets tests stub the external pdftotext process.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// PDFText extracts the text layer of a PDF with poppler's pdftotext. A scan
// without a text layer yields "".
type PDFText struct {
	Binary string // defaults to "pdftotext"
	Runner Runner // defaults to ExecRunner
}

func (p PDFText) Text(ctx context.Context, path string) (string, error) {
	bin := p.Binary
	if bin == "" {
		bin = "pdftotext"
	}
	r := p.Runner
	if r == nil {
		r = ExecRunner{}
	}
	out, errb, err := r.Run(ctx, bin, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v: %s", ErrNoText, bin, err, truncate(strings.TrimSpace(string(errb)), 512))
	}
	return string(out), nil
}

// Plain reads a file that already holds extracted text.
type Plain struct{}

func (Plain) Text(_ context.Context, path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoText, err)
	}
	return string(b), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
