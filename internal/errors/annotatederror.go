// Package errors wraps the standard library errors package with annotated errors that carry [slog.Attr]
// and the source position where they were created.
//
// Use [SlogError] to log them so that the annotations and source end up in the structured log line.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
)

type annotatedError struct {
	msg    string
	err    error
	attrs  []slog.Attr
	source string
}

func (e *annotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

// callerSource returns file:line of the caller skip frames above callerSource.
func callerSource(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	return file + ":" + strconv.Itoa(line)
}

// New returns an error that remembers where it was created. Use [NewSentinel] for package level errors.
func New(msg string, attrs ...slog.Attr) error {
	return &annotatedError{
		msg:    msg,
		err:    nil,
		attrs:  attrs,
		source: callerSource(1),
	}
}

// NewSentinel returns a plain error meant to be declared as a package level variable and compared with [Is].
func NewSentinel(msg string) error {
	return errors.New(msg) //nolint:err113 // this is the sentinel constructor.
}

// Wrap annotates err with msg and attrs. Wrap returns nil if err is nil.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	return &annotatedError{
		msg:    msg,
		err:    err,
		attrs:  attrs,
		source: callerSource(1),
	}
}

// DecoratePanic converts a recovered value into an error pointing at the panicking line.
// It must be called from the deferred function that recovered. It returns nil if excp is nil.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	err, ok := excp.(error)
	if !ok {
		err = errors.New(fmt.Sprint(excp)) //nolint:err113 // dynamic panic value.
	}
	return &annotatedError{
		msg:    "panic",
		err:    err,
		attrs:  []slog.Attr{slog.String("stack", string(debug.Stack()))},
		source: panicSource(),
	}
}

// panicSource walks the stack until the frame right after runtime.gopanic.
func panicSource() string {
	const maxDepth = 32
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	afterPanic := false
	for {
		frame, more := frames.Next()
		if afterPanic && !strings.HasPrefix(frame.Function, "runtime.") {
			return frame.File + ":" + strconv.Itoa(frame.Line)
		}
		if frame.Function == "runtime.gopanic" {
			afterPanic = true
		}
		if !more {
			return ""
		}
	}
}

// SlogError returns an "error" group attribute with the message, every annotation in the chain and the
// source position of the innermost annotated error.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{Key: "error", Value: slog.StringValue("<nil>")}
	}

	var (
		annotations []any
		source      string
	)
	collectAnnotations(err, &annotations, &source)

	attrs := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	return slog.Group("error", attrs...)
}

func collectAnnotations(err error, annotations *[]any, source *string) {
	for err != nil {
		switch e := err.(type) { //nolint:errorlint // we walk the chain ourselves.
		case *annotatedError:
			for _, attr := range e.attrs {
				*annotations = append(*annotations, attr)
			}
			if e.source != "" {
				*source = e.source
			}
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				collectAnnotations(inner, annotations, source)
			}
			return
		}
		err = errors.Unwrap(err)
	}
}

// Is reports whether any error in err's tree matches target. See [errors.Is].
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target. See [errors.As].
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err. See [errors.Unwrap].
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join returns an error that wraps the given errors. See [errors.Join].
func Join(errs ...error) error {
	return errors.Join(errs...)
}
