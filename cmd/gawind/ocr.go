package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	gawin "github.com/gawin-ai/gateway"
	"github.com/gawin-ai/gateway/internal/metrics"
	"github.com/gawin-ai/gateway/internal/ocr"
	"github.com/gawin-ai/gateway/internal/ratelimit"
)

// multipart memory threshold; larger parts spill to temp files.
const ocrParseMemory = 8 << 20

// ocrHandler serves POST /v1/ocr: a multipart upload of up to five image
// files, each at most 10 MiB, answered with per-file extraction results.
// Uploads are throttled per client IP since each file costs a vision call.
func ocrHandler(gw *gawin.Gateway, limiter *ratelimit.PerKey) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(r.RemoteAddr) {
			writeOpenAIError(w, http.StatusTooManyRequests, "too many OCR uploads, slow down", "rate_limit_error")
			return
		}

		vision, ok := gw.FindVision()
		if !ok {
			writeOpenAIError(w, http.StatusServiceUnavailable, "no vision-capable provider registered", "server_error")
			return
		}

		if err := r.ParseMultipartForm(ocrParseMemory); err != nil {
			writeOpenAIError(w, http.StatusBadRequest, "invalid multipart request: "+err.Error(), "invalid_request_error")
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		var uploads []ocr.Upload
		for _, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				f, err := fh.Open()
				if err != nil {
					writeOpenAIError(w, http.StatusBadRequest, "reading upload "+fh.Filename+": "+err.Error(), "invalid_request_error")
					return
				}
				data, err := io.ReadAll(io.LimitReader(f, ocr.MaxFileSize+1))
				_ = f.Close()
				if err != nil {
					writeOpenAIError(w, http.StatusBadRequest, "reading upload "+fh.Filename+": "+err.Error(), "invalid_request_error")
					return
				}
				uploads = append(uploads, ocr.Upload{
					Name:        fh.Filename,
					ContentType: fh.Header.Get("Content-Type"),
					Data:        data,
				})
			}
		}

		if len(uploads) == 0 {
			writeOpenAIError(w, http.StatusBadRequest, "no files uploaded", "invalid_request_error")
			return
		}
		if err := ocr.CheckBatch(uploads); err != nil {
			var tooMany *ocr.ErrTooManyFiles
			if errors.As(err, &tooMany) {
				writeOpenAIError(w, http.StatusBadRequest, err.Error(), "invalid_request_error")
				return
			}
			writeOpenAIError(w, http.StatusBadRequest, err.Error(), "invalid_request_error")
			return
		}

		results := ocr.NewExtractor(vision).Process(r.Context(), uploads)
		for _, res := range results {
			metrics.OCRFiles.WithLabelValues(res.Status).Inc()
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data":   results,
		})
	}
}
