// Package ocr implements text extraction from uploaded images. Uploads are
// validated against hard size and type limits, then handed one at a time to a
// vision-capable adapter as data-URI image messages. PDFs are accepted by the
// upload check but never OCR'd directly; the caller is told to convert them
// to images first.
package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/gawin-ai/gateway/providers"
)

// Upload limits enforced per request.
const (
	MaxFiles    = 5
	MaxFileSize = 10 << 20 // 10 MiB
)

// Per-file status values reported to the caller.
const (
	StatusOK                 = "ok"
	StatusTooLarge           = "too_large"
	StatusUnsupportedType    = "unsupported_type"
	StatusPDFNeedsConversion = "pdf_needs_conversion"
	StatusExtractionFailed   = "extraction_failed"
)

var allowedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// Upload is one file from a multipart request.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// FileResult is the per-file outcome returned to the caller.
type FileResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Text   string `json:"text,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ErrTooManyFiles is returned by CheckBatch when the file count limit is hit.
type ErrTooManyFiles struct {
	Count int
}

func (e *ErrTooManyFiles) Error() string {
	return fmt.Sprintf("%d files uploaded, limit is %d", e.Count, MaxFiles)
}

// CheckBatch validates the request-level constraint on file count. Per-file
// constraints are reported in each file's result instead.
func CheckBatch(uploads []Upload) error {
	if len(uploads) > MaxFiles {
		return &ErrTooManyFiles{Count: len(uploads)}
	}
	return nil
}

// check validates one upload, returning "" when it is extractable.
func check(u Upload) string {
	if len(u.Data) > MaxFileSize {
		return StatusTooLarge
	}
	if !allowedTypes[sniffType(u)] {
		return StatusUnsupportedType
	}
	if sniffType(u) == "application/pdf" {
		return StatusPDFNeedsConversion
	}
	return ""
}

// sniffType determines the effective MIME type, preferring content sniffing
// over the client-declared header.
func sniffType(u Upload) string {
	detected := http.DetectContentType(u.Data)
	if detected != "application/octet-stream" {
		// Strip any parameters, e.g. "text/plain; charset=utf-8".
		if i := strings.IndexByte(detected, ';'); i >= 0 {
			detected = strings.TrimSpace(detected[:i])
		}
		return detected
	}
	return u.ContentType
}

// Extractor runs OCR over validated uploads.
type Extractor struct {
	vision providers.VisionAdapter
	prompt string
}

// NewExtractor builds an Extractor over a vision-capable adapter.
func NewExtractor(vision providers.VisionAdapter) *Extractor {
	return &Extractor{
		vision: vision,
		prompt: "Extract all readable text from this image. Reply with the text only, preserving line breaks. Reply with an empty string if the image contains no text.",
	}
}

// Process validates and extracts each upload in order. It never fails the
// whole batch for one bad file; CheckBatch guards the only batch-level limit.
func (e *Extractor) Process(ctx context.Context, uploads []Upload) []FileResult {
	results := make([]FileResult, 0, len(uploads))
	for _, u := range uploads {
		results = append(results, e.processOne(ctx, u))
	}
	return results
}

func (e *Extractor) processOne(ctx context.Context, u Upload) FileResult {
	res := FileResult{Name: u.Name}
	switch status := check(u); status {
	case "":
	case StatusPDFNeedsConversion:
		res.Status = status
		res.Error = "PDF files cannot be OCR'd directly; convert each page to an image and re-upload"
		return res
	case StatusTooLarge:
		res.Status = status
		res.Error = fmt.Sprintf("file exceeds the %d MB limit", MaxFileSize>>20)
		return res
	default:
		res.Status = status
		res.Error = fmt.Sprintf("unsupported file type %q", sniffType(u))
		return res
	}

	if e.vision == nil {
		res.Status = StatusExtractionFailed
		res.Error = "no vision-capable provider is configured"
		return res
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", sniffType(u), base64.StdEncoding.EncodeToString(u.Data))
	req := providers.Request{
		Messages: []providers.Message{{
			Role: providers.RoleUser,
			ContentParts: []providers.ContentPart{
				{Type: providers.ContentTypeText, Text: e.prompt},
				{Type: providers.ContentTypeImageURL, ImageURL: &providers.ImageURLPart{URL: dataURI}},
			},
		}},
	}
	resp, err := e.vision.Complete(ctx, req)
	if err != nil {
		res.Status = StatusExtractionFailed
		res.Error = err.Error()
		return res
	}
	res.Status = StatusOK
	res.Text = resp.Content()
	return res
}
