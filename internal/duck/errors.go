package duck

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is the single error kind surfaced by the duck store and router.
// Status is an HTTP status code; Message is safe to show to clients.
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Store action labels used in error messages.
const (
	ActionFetchAll = "fetch entities"
	ActionFetch    = "fetch entity"
	ActionCreate   = "create entity"
	ActionUpdate   = "update entity"
	ActionDelete   = "delete entity"
)

// ErrInvalidID is returned (wrapped) for identifiers that cannot address a document.
var ErrInvalidID = errors.New("invalid identifier")

// ErrNotAcknowledged is returned (wrapped) when the store did not acknowledge a write.
var ErrNotAcknowledged = errors.New("operation not acknowledged")

// ErrDuplicateID is returned (wrapped) when a generated identifier is already taken.
var ErrDuplicateID = errors.New("duplicate identifier")

// ErrNoFields is returned (wrapped) for an update without any settable field.
var ErrNoFields = errors.New("no fields to update")

// StoreError wraps a store level failure of the given action as a 500 Error.
func StoreError(action string, err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("Failed to %s; %v", action, err),
		Err:     err,
	}
}

// BadRequest builds a 400 Error for input rejected at the HTTP boundary.
func BadRequest(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// CheckID validates an identifier before it reaches the store.
func CheckID(uid string) error {
	if strings.TrimSpace(uid) == "" {
		return ErrInvalidID
	}
	return nil
}

// StatusOf extracts status and message from err. Errors that are not an
// *Error map to 500 "Internal server error".
func StatusOf(err error) (int, string) {
	var de *Error
	if errors.As(err, &de) && de.Status != 0 {
		return de.Status, de.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}
