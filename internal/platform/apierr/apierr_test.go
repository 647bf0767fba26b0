package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusAndCode(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", New(http.StatusBadRequest, "invalid_request", errors.New("message required")))
	status, code := StatusAndCode(wrapped)
	if status != http.StatusBadRequest || code != "invalid_request" {
		t.Fatalf("want=400/invalid_request got=%d/%s", status, code)
	}

	status, code = StatusAndCode(errors.New("boom"))
	if status != http.StatusInternalServerError || code != "internal_error" {
		t.Fatalf("want=500/internal_error got=%d/%s", status, code)
	}
}
