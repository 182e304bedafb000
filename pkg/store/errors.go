package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateName is returned when a name would appear twice in a snapshot
	ErrDuplicateName = errors.New("duplicate employee name")

	// ErrInvalidEmployee is returned for records that cannot be added
	ErrInvalidEmployee = errors.New("invalid employee")
)

// DuplicateNameError lists the names that collided
type DuplicateNameError struct {
	Names []string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateName, strings.Join(e.Names, ", "))
}

func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}
