// Provides common crdt errors definitions.
package crdt_errors

import "errors"

var (
	ErrInvalidDot       = errors.New("crdt: not a dot")
	ErrInvalidDotFormat = errors.New("crdt: bad dot string")
	ErrUnjoinableTypes  = errors.New("crdt: values do not join")

	ErrBadContextRecord = errors.New("crdt: bad context record")
	ErrBadKernelRecord  = errors.New("crdt: bad kernel record")
)
