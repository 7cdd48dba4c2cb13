package app_errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrNotFound = errors.New("not found")
var ErrForbidden = errors.New("forbidden")
var ErrConflict = errors.New("conflict")
var ErrUnavailable = errors.New("feature is not configured")

var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrIncorrectPassword = errors.New("incorrect password")
var ErrIncorrectRole = errors.New("role must be teacher or student")
var ErrTokenNotFound = errors.New("token not found")
var ErrTokenExpired = errors.New("token expired")
var ErrInvalidToken = errors.New("invalid token")

var ErrClassNotFound = fmt.Errorf("class %w", ErrNotFound)
var ErrSubjectNotFound = fmt.Errorf("subject %w", ErrNotFound)
var ErrChapterNotFound = fmt.Errorf("chapter %w", ErrNotFound)
var ErrParagraphNotFound = fmt.Errorf("paragraph %w", ErrNotFound)
var ErrAssignmentNotFound = fmt.Errorf("assignment %w", ErrNotFound)
var ErrBlockNotFound = fmt.Errorf("block %w", ErrNotFound)
var ErrMemberNotFound = fmt.Errorf("class member %w", ErrNotFound)

var ErrNotClassOwner = fmt.Errorf("%w: you are not the class owner", ErrForbidden)
var ErrReadOnly = fmt.Errorf("%w: class members have read-only access", ErrForbidden)
var ErrAnswersDisabled = fmt.Errorf("%w: answers are disabled for this assignment", ErrForbidden)
var ErrTeacherOnly = fmt.Errorf("%w: only teachers can do this", ErrForbidden)

var ErrVersionConflict = fmt.Errorf("block version %w", ErrConflict)
var ErrAlreadyMember = fmt.Errorf("%w: user is already a class member", ErrConflict)
var ErrDuplicateJoinCode = fmt.Errorf("%w: join code already in use", ErrConflict)
var ErrDuplicateNumber = fmt.Errorf("%w: sequence number already taken", ErrConflict)

var ErrNotMedia = errors.New("media can only be attached to image and video blocks")
var ErrFileSize = errors.New("file size error")

// ValidationError carries per-field messages for a rejected payload.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ExternalError reports a failed call to a collaborator such as the
// text generation service.
type ExternalError struct {
	Service   string
	Retryable bool
	Err       error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}
