package persistence

import (
	"testing"

	"saveit/internal/core"
)

func TestCategoryPtrToStr(t *testing.T) {
	if categoryPtrToStr(nil) != nil {
		t.Errorf("expected nil for nil category")
	}
	cat := core.CategoryTravel
	got := categoryPtrToStr(&cat)
	if got == nil || *got != "Travel" {
		t.Errorf("expected Travel, got %v", got)
	}
}

func TestIntentPtrToStr(t *testing.T) {
	if intentPtrToStr(nil) != nil {
		t.Errorf("expected nil for nil intent")
	}
	intent := core.IntentHowTo
	got := intentPtrToStr(&intent)
	if got == nil || *got != "how_to" {
		t.Errorf("expected how_to, got %v", got)
	}
}
