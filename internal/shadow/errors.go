package shadow

import (
	"errors"
	"fmt"
)

// Sentinel errors for structural mutation faults. The typed errors below
// match these via errors.Is.
var (
	// ErrDuplicateTag is returned when a tag is registered twice.
	ErrDuplicateTag = errors.New("shadow: duplicate tag")

	// ErrUnknownNode is returned when an operation targets an unregistered tag.
	ErrUnknownNode = errors.New("shadow: unknown node")

	// ErrIndexOutOfRange is returned when a child index exceeds the
	// pre-operation child count.
	ErrIndexOutOfRange = errors.New("shadow: index out of range")

	// ErrInvalidArguments is returned for malformed operation payloads, such
	// as unpaired move or add lists.
	ErrInvalidArguments = errors.New("shadow: invalid arguments")
)

// DuplicateTagError reports an attempt to register a tag that is already live.
type DuplicateTagError struct {
	Op  string
	Tag int
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("%s: tag %d is already registered", e.Op, e.Tag)
}

func (e *DuplicateTagError) Is(target error) bool { return target == ErrDuplicateTag }

// UnknownNodeError reports an operation on a tag with no registered node.
type UnknownNodeError struct {
	Op  string
	Tag int
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("%s: no node registered for tag %d", e.Op, e.Tag)
}

func (e *UnknownNodeError) Is(target error) bool { return target == ErrUnknownNode }

// IndexOutOfRangeError reports a child index outside the node's child list.
type IndexOutOfRangeError struct {
	Op    string
	Tag   int
	Field string
	Index int
	Count int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%s: %s index %d out of range for tag %d with %d children", e.Op, e.Field, e.Index, e.Tag, e.Count)
}

func (e *IndexOutOfRangeError) Is(target error) bool { return target == ErrIndexOutOfRange }

// InvalidArgumentsError reports a malformed operation payload.
type InvalidArgumentsError struct {
	Op     string
	Tag    int
	Reason string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("%s: invalid arguments for tag %d: %s", e.Op, e.Tag, e.Reason)
}

func (e *InvalidArgumentsError) Is(target error) bool { return target == ErrInvalidArguments }
