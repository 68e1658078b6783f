package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	inner := errors.New("connection refused")
	err := Wrap(ErrUnavailable, "lmstudio", "chat", "request failed", inner)

	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped error should match ErrUnavailable")
	}
	if !errors.Is(err, inner) {
		t.Error("wrapped error should match the inner error")
	}
	if !strings.Contains(err.Error(), "lmstudio: chat: request failed") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestWrapNilMarkerDefaultsToUnavailable(t *testing.T) {
	err := Wrap(nil, "director", "query", "", nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("nil marker should default to ErrUnavailable, got %v", err)
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := Wrap(ErrBusy, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Errorf("unexpected message: %v", err)
	}
}
