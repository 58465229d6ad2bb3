package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := Conflict("a pending request already exists")
	wrapped := fmt.Errorf("submit: %w", base)

	if KindOf(wrapped) != KindConflict {
		t.Errorf("expected KindConflict, got %s", KindOf(wrapped))
	}
	if !IsKind(wrapped, KindConflict) {
		t.Error("IsKind failed on wrapped error")
	}
	if !errors.Is(wrapped, Conflict("")) {
		t.Error("errors.Is by kind failed on wrapped error")
	}
}

func TestIOFailureKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := IOFailure("writing quarantine object", cause)

	if !errors.Is(err, cause) {
		t.Error("expected cause to remain in the chain")
	}
	if KindOf(err) != KindIOFailure {
		t.Errorf("expected KindIOFailure, got %s", KindOf(err))
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad"), fiber.StatusBadRequest},
		{Conflict("dup"), fiber.StatusConflict},
		{InvalidState("not pending"), fiber.StatusConflict},
		{Forbidden("no"), fiber.StatusForbidden},
		{NotFound("gone"), fiber.StatusNotFound},
		{PayloadTooLarge("big"), fiber.StatusRequestEntityTooLarge},
		{IOFailure("io", nil), fiber.StatusInternalServerError},
		{StorageInconsistency("orphan", nil), fiber.StatusInternalServerError},
		{errors.New("plain"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain errors must not report a kind")
	}
}
