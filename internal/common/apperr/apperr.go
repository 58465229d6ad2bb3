package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind is the machine-readable error class. Every error leaving a service
// layer carries exactly one Kind so controllers can map it to an HTTP status
// without inspecting messages.
type Kind string

const (
	KindValidation           Kind = "VALIDATION_ERROR"
	KindConflict             Kind = "CONFLICT"
	KindForbidden            Kind = "FORBIDDEN"
	KindNotFound             Kind = "NOT_FOUND"
	KindInvalidState         Kind = "INVALID_STATE"
	KindPayloadTooLarge      Kind = "PAYLOAD_TOO_LARGE"
	KindIOFailure            Kind = "IO_FAILURE"
	KindStorageInconsistency Kind = "STORAGE_INCONSISTENCY"
)

// Error wraps a cause with a Kind and a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two apperr values by Kind, so errors.Is(err, apperr.Conflict(""))
// style checks work; tests and callers should prefer IsKind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error      { return New(KindValidation, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func InvalidState(message string) *Error    { return New(KindInvalidState, message) }
func PayloadTooLarge(message string) *Error { return New(KindPayloadTooLarge, message) }

func IOFailure(message string, err error) *Error {
	return Wrap(KindIOFailure, message, err)
}

func StorageInconsistency(message string, err error) *Error {
	return Wrap(KindStorageInconsistency, message, err)
}

// KindOf extracts the Kind from any error in the chain, or "" when the error
// did not originate in a service layer.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given Kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a Kind to the status the controllers return.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindConflict, KindInvalidState:
		return fiber.StatusConflict
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindPayloadTooLarge:
		return fiber.StatusRequestEntityTooLarge
	case KindIOFailure, KindStorageInconsistency:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// Respond renders err as the portal's standard error body.
func Respond(c *fiber.Ctx, err error) error {
	status := HTTPStatus(err)
	var e *Error
	if errors.As(err, &e) {
		return c.Status(status).JSON(fiber.Map{"error": e.Message, "code": string(e.Kind)})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
