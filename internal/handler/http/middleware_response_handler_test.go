package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseWriter_RecordsStatusAndSize(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &responseWriter{ResponseWriter: rec}

	w.WriteHeader(http.StatusConflict)
	n, err := w.Write([]byte(`{"data_type":"contacts","version":7}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusConflict, w.status)
	assert.Equal(t, n, w.size)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestResponseWriter_ImplicitOKOnFirstWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &responseWriter{ResponseWriter: rec}

	_, err := w.Write([]byte("ok"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, w.status)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResponseWriter_SecondWriteHeaderIgnored(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &responseWriter{ResponseWriter: rec}

	w.WriteHeader(http.StatusUnauthorized)
	w.WriteHeader(http.StatusOK)

	assert.Equal(t, http.StatusUnauthorized, w.status)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResponseWriter_SizeAccumulatesAcrossWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &responseWriter{ResponseWriter: rec}

	for _, chunk := range []string{`{"version":`, `4`, `}`} {
		_, err := w.Write([]byte(chunk))
		require.NoError(t, err)
	}

	assert.Equal(t, len(`{"version":4}`), w.size)
	assert.Equal(t, `{"version":4}`, rec.Body.String())
}
