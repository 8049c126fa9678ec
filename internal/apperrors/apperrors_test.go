package apperrors

import (
	"errors"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := NotFound("save %s not found", "save-1")
	if KindOf(err) != KindNotFound {
		t.Errorf("expected KindNotFound, got %s", KindOf(err))
	}

	plain := errors.New("boom")
	if KindOf(plain) != KindInternal {
		t.Errorf("expected KindInternal for untyped error, got %s", KindOf(plain))
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := UnavailableExternal(cause, "gemini embedding call failed")
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped error to satisfy errors.Is against cause")
	}
	if KindOf(err) != KindUnavailableExternal {
		t.Errorf("expected KindUnavailableExternal, got %s", KindOf(err))
	}
}

func TestWrapNilIsNil(t *testing.T) {
	if Wrap(KindInternal, "msg", nil) != nil {
		t.Errorf("expected Wrap(nil) to return nil")
	}
}

func TestForbidden(t *testing.T) {
	err := Forbidden("cluster %s does not belong to caller", "cluster-1")
	if KindOf(err) != KindForbidden {
		t.Errorf("expected KindForbidden, got %s", KindOf(err))
	}
}

func TestIs(t *testing.T) {
	err := RateLimited("too many requests")
	if !Is(err, KindRateLimited) {
		t.Errorf("expected Is to report true for matching kind")
	}
	if Is(err, KindConflict) {
		t.Errorf("expected Is to report false for mismatched kind")
	}
}
