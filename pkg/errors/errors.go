package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so callers can use errors.Is against the predefined values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Generic errors shared by the HTTP surface.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Sprint engine errors. Messages are shown to end users as-is.
var (
	ErrNoCurriculum           = New("NO_CURRICULUM", http.StatusBadRequest, "curriculum is required")
	ErrNoUser                 = New("NO_USER", http.StatusUnauthorized, "user is required")
	ErrNoSprint               = New("NO_SPRINT", http.StatusNotFound, "sprint is required")
	ErrNoTopics               = New("NO_TOPICS", http.StatusUnprocessableEntity, "selection did not resolve to any topic")
	ErrNoVideos               = New("NO_VIDEOS", http.StatusUnprocessableEntity, "no videos found for the selected topics")
	ErrNoVideosTeacher        = New("NO_VIDEOS_TEACHER", http.StatusUnprocessableEntity, "no videos left after applying teacher preferences")
	ErrTeacherPlaylistMissing = New("TEACHER_PLAYLIST_MISSING", http.StatusUnprocessableEntity, "no playlist found for the selected teacher")
	ErrTeacherVideoMissing    = New("TEACHER_VIDEO_MISSING", http.StatusUnprocessableEntity, "no videos found for the selected teacher")
	ErrLessonCapZero          = New("LESSON_CAP_ZERO", http.StatusBadRequest, "lesson daily minutes must be greater than zero")
	ErrBadDate                = New("BAD_DATE", http.StatusBadRequest, "start date is invalid")
	ErrBinInitFailed          = New("BIN_INIT_FAILED", http.StatusInternalServerError, "day bin could not be initialised")
	ErrTimeout                = New("TIMEOUT", http.StatusGatewayTimeout, "request timed out")
	ErrStorage                = New("STORAGE_ERROR", http.StatusInternalServerError, "storage request failed")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrTimeout.Code, ErrTimeout.Status, ErrTimeout.Message)
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// CodeOf returns the machine readable code carried by err, or an empty string.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
