// Package validator has small helpers for validating configuration.
package validator

import (
	"errors"
	"fmt"
	"os"
	"slices"
)

// All returns the first non-nil error.
func All(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

type Validatable interface {
	Validate() error
}

// Optional validates v unless it is nil.
func Optional[T Validatable](v *T) error {
	if v == nil {
		return nil
	}
	return (*v).Validate()
}

func Map[T any](items []T, f func(T, string) error, description string) error {
	for i, item := range items {
		if err := f(item, fmt.Sprintf("%s[%d]", description, i)); err != nil {
			return err
		}
	}
	return nil
}

func NotEmpty(field, description string) error {
	if field == "" {
		return fmt.Errorf("%s must not be empty", description)
	}
	return nil
}

func NonNegative(n int, description string) error {
	if n < 0 {
		return fmt.Errorf("%s must not be negative, got %d", description, n)
	}
	return nil
}

func NoDuplicates[T comparable](slice []T, description string) error {
	seen := make(map[T]struct{})
	for _, v := range slice {
		if _, ok := seen[v]; ok {
			return fmt.Errorf("%s contains duplicate value: %v", description, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

// MatchesAllowed accepts the zero value as "use the default".
func MatchesAllowed[T comparable](field T, allowed []T, description string) error {
	var zero T
	if field != zero && !slices.Contains(allowed, field) {
		return fmt.Errorf("%s must be one of %v, got %v", description, allowed, field)
	}
	return nil
}

// FileExists checks that path names a regular file. Empty paths pass.
func FileExists(path, description string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %s does not exist", description, path)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %s is a directory", description, path)
	}
	return nil
}

// DirExists checks that path names a directory. Empty paths pass.
func DirExists(path, description string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", description, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %s is not a directory", description, path)
	}
	return nil
}
