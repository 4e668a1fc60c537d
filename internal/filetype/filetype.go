// Package filetype validates uploaded documents before they are fingerprinted.
package filetype

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	ErrEmpty           = errors.New("uploaded file is empty")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrMalformed       = errors.New("malformed document")
)

func init() {
	// pdfcpu otherwise creates a config directory under $HOME on first use.
	api.DisableConfigDir()
}

// expected maps an extension to the MIME type its content must sniff as.
var expected = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"bmp":  "image/bmp",
	"gif":  "image/gif",
}

// Info describes an accepted upload.
type Info struct {
	Ext         string
	ContentType string
	PageCount   int
}

// IsPDF reports whether the upload is a PDF.
func (i Info) IsPDF() bool { return i.Ext == "pdf" }

// Inspector checks uploads against an extension allow-list.
type Inspector struct {
	allowed []string
}

// NewInspector returns an Inspector accepting the given extensions (without dots).
func NewInspector(allowed []string) *Inspector {
	norm := make([]string, 0, len(allowed))
	for _, ext := range allowed {
		norm = append(norm, strings.TrimPrefix(strings.ToLower(ext), "."))
	}
	return &Inspector{allowed: norm}
}

// Inspect validates filename and content and describes the document.
func (in *Inspector) Inspect(filename string, content []byte) (Info, error) {
	if len(content) == 0 {
		return Info{}, ErrEmpty
	}
	ext := Ext(filename)
	want, known := expected[ext]
	if !known || !slices.Contains(in.allowed, ext) {
		return Info{}, fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedType, ext, strings.Join(in.allowed, ", "))
	}

	detected := mimetype.Detect(content)
	if !detected.Is(want) {
		return Info{}, fmt.Errorf("%w: content is %s, extension says %s", ErrUnsupportedType, detected.String(), want)
	}

	info := Info{Ext: ext, ContentType: want, PageCount: 1}
	if info.IsPDF() {
		pages, err := countPages(content)
		if err != nil {
			return Info{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if pages == 0 {
			return Info{}, fmt.Errorf("%w: pdf has no pages", ErrMalformed)
		}
		info.PageCount = pages
	}
	return info, nil
}

// Ext returns the lower-case extension of filename without the dot.
func Ext(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

func countPages(content []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(content), conf)
}
