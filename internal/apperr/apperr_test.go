package apperr

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"client", Client("bad input"), http.StatusBadRequest},
		{"not found", NotFound("bill not available"), http.StatusNotFound},
		{"conflict", Conflict("table already has a session"), http.StatusConflict},
		{"server", Server("orders exist without a customer"), http.StatusInternalServerError},
		{"wrapped internal", Internal(errors.New("pq: connection reset"), "save order"), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInternalPassesClientThrough(t *testing.T) {
	orig := NotFound("order not found")
	got := Internal(orig, "update order")
	if got != orig {
		t.Errorf("Internal() rewrapped a client error: %v", got)
	}
	if !IsClient(got) {
		t.Error("expected client error to stay a client error")
	}
}

func TestInternalWrapsCause(t *testing.T) {
	cause := errors.New("driver failure")
	err := Internal(cause, "load bill")
	if IsClient(err) {
		t.Error("internal error classified as client")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error lost its cause")
	}
	if err.Error() != "load bill" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestInternalNil(t *testing.T) {
	if err := Internal(nil, "noop"); err != nil {
		t.Errorf("Internal(nil) = %v, want nil", err)
	}
}
