package http

import "net/http"

// responseWriter decorates [http.ResponseWriter] so the logging middleware
// can report the status code and body size of a finished request. The status
// line is forwarded to the underlying writer exactly once; a Write before
// any explicit WriteHeader implies 200, matching the standard library.
type responseWriter struct {
	http.ResponseWriter

	status      int
	size        int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.status = statusCode
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}
