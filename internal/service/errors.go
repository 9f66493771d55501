package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/penportal-api/internal/models"
)

var (
	ErrArticleNotFound = errors.New("article not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrForbidden       = errors.New("not authorized to modify this resource")
	ErrSelfFollow      = errors.New("cannot follow yourself")
	ErrInvalidInput    = errors.New("invalid input")
)

// ValidationErrors carries field-level failures; it matches ErrInvalidInput
type ValidationErrors []models.ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Is(target error) bool {
	return target == ErrInvalidInput
}

func validationFailed(errs []models.ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	return ValidationErrors(errs)
}
