package http

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Sync clients push and pull envelope payloads continuously, so the gzip
// codecs are pooled rather than allocated per request.
var (
	gzipWriters = sync.Pool{New: func() any { return gzip.NewWriter(io.Discard) }}
	gzipReaders = sync.Pool{New: func() any { return new(gzip.Reader) }}
)

// withGZip transparently decompresses gzip request bodies and compresses
// responses for clients that announce Accept-Encoding: gzip. A body declared
// as gzip that does not decode is rejected before it reaches a handler.
func withGZip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") && r.Body != nil {
			reader := gzipReaders.Get().(*gzip.Reader)
			if err := reader.Reset(r.Body); err != nil {
				gzipReaders.Put(reader)
				http.Error(w, "Invalid gzip data", http.StatusBadRequest)
				return
			}

			// handlers see the plain body; the encoding header must not leak
			// into downstream decisions
			r.Body = &pooledGzipBody{reader: reader}
			r.Header.Del("Content-Encoding")
		}

		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		writer := gzipWriters.Get().(*gzip.Writer)
		writer.Reset(w)

		next.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, gzipWriter: writer}, r)

		writer.Close()
		gzipWriters.Put(writer)
	})
}

// pooledGzipBody is a request body backed by a pooled gzip.Reader. Close
// returns the reader to the pool; the body must not be read afterwards.
type pooledGzipBody struct {
	reader *gzip.Reader
}

func (b *pooledGzipBody) Read(p []byte) (int, error) {
	return b.reader.Read(p)
}

func (b *pooledGzipBody) Close() error {
	err := b.reader.Close()
	gzipReaders.Put(b.reader)
	return err
}

// gzipResponseWriter funnels every Write through the pooled gzip.Writer and
// stamps the Content-Encoding header when the status line is written.
type gzipResponseWriter struct {
	http.ResponseWriter
	gzipWriter *gzip.Writer
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	w.Header().Set("Content-Encoding", "gzip")
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzipWriter.Write(data)
}
