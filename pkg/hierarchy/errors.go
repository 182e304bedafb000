package hierarchy

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a requested person is not in the directory
	ErrNotFound = errors.New("person not found")

	// ErrCyclicHierarchy is returned when manager references loop back on themselves
	ErrCyclicHierarchy = errors.New("cyclic hierarchy")
)

// NotFoundError names the person that could not be resolved
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrNotFound, e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// CycleError lists the names involved in a manager cycle
type CycleError struct {
	Names []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCyclicHierarchy, strings.Join(e.Names, " -> "))
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCyclicHierarchy
}
