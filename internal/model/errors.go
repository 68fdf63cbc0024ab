package model

import (
	"errors"
	"fmt"
)

var (
	ErrCapacity     = errors.New("capacity reached")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrNoteTooLarge = errors.New("note exceeds maximum size")
)

// CapacityError reports which limit blocked an add.
type CapacityError struct {
	Entity string
	Limit  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s limit reached (max %d)", e.Entity, e.Limit)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacity
}

// NotFound builds an ErrNotFound wrapped with the entity and id.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrNotFound)
}

// Invalid builds an ErrInvalidInput wrapped with a reason.
func Invalid(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrInvalidInput)
}
