package food

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDFallback(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	id := requestID(c)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("generated id %q is not a uuid: %v", id, err)
	}
	if got := w.Header().Get("X-Request-ID"); got != id {
		t.Errorf("X-Request-ID = %q, want %q", got, id)
	}
}

func TestImageKind(t *testing.T) {
	tests := map[string]string{
		"":                              "empty",
		"data:image/png;base64,iVBORw0": "data_uri_png",
		"data:image/png":                "invalid_data_uri",
		"/9j/4AAQSkZJRg":                "base64_jpeg",
		"not base64!":                   "unknown_format",
	}
	for in, want := range tests {
		if got := imageKind(in); got != want {
			t.Errorf("imageKind(%q) = %q, want %q", in, got, want)
		}
	}
}
