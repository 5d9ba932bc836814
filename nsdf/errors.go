package nsdf

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nsdf/nsdf/container"
)

// Error taxonomy. Every error returned by the engine wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	// ErrValidation reports bad input: an empty or mismatched source list,
	// missing metadata, or a malformed payload.
	ErrValidation = errors.New("nsdf: validation failed")

	// ErrDialect reports a call that the file's dialect does not support.
	ErrDialect = errors.New("nsdf: operation not supported by dialect")

	// ErrGrowth reports an append to a dataset created as fixed.
	ErrGrowth = errors.New("nsdf: dataset is fixed")

	// ErrRead reports a file that cannot be read back: a missing or
	// garbled attribute, an unknown dialect, or a broken layout.
	ErrRead = errors.New("nsdf: read error")

	// ErrNotFound reports a missing source, map or dataset.
	ErrNotFound = errors.New("nsdf: not found")

	// ErrClosed reports use of a closed Writer or Reader.
	ErrClosed = errors.New("nsdf: closed")
)

// Warning is a non-fatal problem met while writing, such as a map source
// missing from the model tree. The write that produced it still succeeds.
type Warning struct {
	// Path is the object being written: a map dataset while linking, a
	// file while embedding model files.
	Path string
	// UID is the unresolved source id, if the warning concerns one.
	UID     string
	Message string
}

func (w Warning) String() string {
	if w.UID != "" {
		return fmt.Sprintf("%s: %s (uid %q)", w.Path, w.Message, w.UID)
	}
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}

func (w Warning) fields() []zap.Field {
	fields := []zap.Field{zap.String("path", w.Path)}
	if w.UID != "" {
		fields = append(fields, zap.String("uid", w.UID))
	}
	return fields
}

// readErr wraps cause as a read error.
func readErr(cause error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if cause == nil {
		return errors.Wrap(ErrRead, msg)
	}
	if errors.Is(cause, container.ErrNotFound) && !errors.Is(cause, ErrNotFound) {
		cause = fmt.Errorf("%w: %w", ErrNotFound, cause)
	}
	return errors.WithStack(fmt.Errorf("%w: %s: %w", ErrRead, msg, cause))
}

// wrapAs tags cause with a taxonomy sentinel while keeping it inspectable.
func wrapAs(sentinel, cause error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return errors.WithStack(fmt.Errorf("%w: %s: %w", sentinel, msg, cause))
}

// containerErr maps a container error onto the taxonomy. Errors with no
// counterpart are wrapped unchanged.
func containerErr(err error, format string, args ...any) error {
	switch {
	case errors.Is(err, container.ErrMaxDims):
		return wrapAs(ErrGrowth, err, format, args...)
	case errors.Is(err, container.ErrNotFound):
		return wrapAs(ErrNotFound, err, format, args...)
	case errors.Is(err, container.ErrClosed):
		return wrapAs(ErrClosed, err, format, args...)
	case errors.Is(err, container.ErrInvalidPath),
		errors.Is(err, container.ErrExists),
		errors.Is(err, container.ErrClass),
		errors.Is(err, container.ErrRank),
		errors.Is(err, container.ErrUnsupported):
		return wrapAs(ErrValidation, err, format, args...)
	}
	return errors.Wrapf(err, format, args...)
}
