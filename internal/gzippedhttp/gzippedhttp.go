// Package gzippedhttp compresses HTTP responses for clients that accept
// gzip. Writers are pooled to avoid re-allocating the compressor per
// request.
package gzippedhttp

import (
	"compress/gzip"
	"net/http"
	"strings"
	"sync"
)

var writerPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		return w
	},
}

type compressedResponseWriter struct {
	http.ResponseWriter
	zw          *gzip.Writer
	wroteHeader bool
}

func (c *compressedResponseWriter) WriteHeader(statusCode int) {
	// Every write goes through the compressor, so the header is set
	// unconditionally.
	c.Header().Set("Content-Encoding", "gzip")
	c.Header().Del("Content-Length")
	c.wroteHeader = true
	c.ResponseWriter.WriteHeader(statusCode)
}

func (c *compressedResponseWriter) Write(p []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	return c.zw.Write(p)
}

func (c *compressedResponseWriter) close() error {
	err := c.zw.Close()
	writerPool.Put(c.zw)
	return err
}

// GzipResponse wraps the response writer with a gzip compressor when the
// request's Accept-Encoding allows it.
func GzipResponse(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if !strings.Contains(request.Header.Get("Accept-Encoding"), "gzip") {
			h.ServeHTTP(response, request)
			return
		}

		zw := writerPool.Get().(*gzip.Writer)
		zw.Reset(response)
		compressed := &compressedResponseWriter{
			ResponseWriter: response,
			zw:             zw,
		}
		defer compressed.close()

		h.ServeHTTP(compressed, request)
	}

	return http.HandlerFunc(middleware)
}
