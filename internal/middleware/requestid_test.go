package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWithRequestID(t *testing.T, headerID string) (seenID string, rec *httptest.ResponseRecorder) {
	t.Helper()
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/query", nil)
	if headerID != "" {
		req.Header.Set("X-Request-ID", headerID)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return seenID, rec
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	seenID, rec := serveWithRequestID(t, "")

	require.NotEmpty(t, seenID)
	assert.Equal(t, seenID, rec.Header().Get("X-Request-ID"))
}

func TestRequestID_KeepsWellFormedClientID(t *testing.T) {
	seenID, rec := serveWithRequestID(t, "trace-42_abc")

	assert.Equal(t, "trace-42_abc", seenID)
	assert.Equal(t, "trace-42_abc", rec.Header().Get("X-Request-ID"))
}

func TestRequestID_ReplacesUnsafeClientID(t *testing.T) {
	tests := []struct {
		name     string
		headerID string
		replaced bool
	}{
		{"alphanumeric with separators", "abc-123_DEF", false},
		{"max length", strings.Repeat("a", 128), false},
		{"newline log forging", "id\nlevel=ERROR forged", true},
		{"carriage return", "id\rforged", true},
		{"spaces", "id with spaces", true},
		{"markup", "id<script>alert(1)</script>", true},
		{"over max length", strings.Repeat("a", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenID, _ := serveWithRequestID(t, tt.headerID)
			require.NotEmpty(t, seenID)
			if tt.replaced {
				assert.NotEqual(t, tt.headerID, seenID)
			} else {
				assert.Equal(t, tt.headerID, seenID)
			}
		})
	}
}

func TestRequestIDFromContext_EmptyWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, RequestIDFromContext(req.Context()))
}
