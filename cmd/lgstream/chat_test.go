package main

import (
	"errors"
	"testing"
)

func TestChat_Errors(t *testing.T) {
	t.Run("unknown provider", func(t *testing.T) {
		if _, _, err := execute(t, "", "chat", "--provider", "cohere", "hello"); err == nil {
			t.Error("expected error for unknown provider")
		}
	})

	t.Run("missing key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		_, _, err := execute(t, "", "chat", "--provider", "openai", "hello")
		if !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("expected ErrMissingAPIKey, got %v", err)
		}
	})

	t.Run("prompt required", func(t *testing.T) {
		if _, _, err := execute(t, "", "chat"); err == nil {
			t.Error("expected error without a prompt")
		}
	})
}
