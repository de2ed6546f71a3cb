package logstore

import (
	"fmt"

	"LogDB/internal/domain"

	"github.com/pkg/errors"
)

var (
	// ErrClosed is returned by operations on a closed Database.
	ErrClosed = errors.New("database closed")

	// ErrLogBroken is returned by appends after a failed append could not be rolled back.
	ErrLogBroken = errors.New("log file left in an unknown state by a failed append")
)

// CorruptionErr reports bytes at Offset that violate the record layout.
type CorruptionErr struct {
	Offset int64
	Err    error
}

func corruption(offset int64, err error) *CorruptionErr {
	return &CorruptionErr{Offset: offset, Err: err}
}

func (e *CorruptionErr) Error() string {
	return fmt.Sprintf("corrupt record at offset %d: %s", e.Offset, e.Err)
}

func (e *CorruptionErr) Unwrap() error {
	return e.Err
}

func (e *CorruptionErr) Is(target error) bool {
	return target == domain.ErrCorruptRecord
}

// IOErr reports a failed operation on the log file.
type IOErr struct {
	Op   string
	Path string
	Err  error
}

func ioError(op, path string, err error) *IOErr {
	return &IOErr{Op: op, Path: path, Err: err}
}

func (e *IOErr) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
}

func (e *IOErr) Unwrap() error {
	return e.Err
}

func (e *IOErr) Is(target error) bool {
	return target == domain.ErrIO
}

// OpenErr wraps the IOErr or CorruptionErr that prevented Open from returning a handle.
type OpenErr struct {
	Path string
	Err  error
}

func (e *OpenErr) Error() string {
	return fmt.Sprintf("open %s: %s", e.Path, e.Err)
}

func (e *OpenErr) Unwrap() error {
	return e.Err
}

func (e *OpenErr) Is(target error) bool {
	return target == domain.ErrOpenFailed
}
