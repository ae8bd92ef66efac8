package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrAlreadyIndexed = errors.New("document already indexed")
	ErrChunkCeiling   = errors.New("parent chunk ceiling exceeded")
	ErrEmptyContent   = errors.New("no extractable content")
	ErrIndexNotFound  = errors.New("search index not found")
	ErrTemporary      = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
