// Package check implements the engine's programmer-error checks.
//
// Checks are compiled in by default and stripped with the "release" build
// tag. Debug builds can also switch them off at runtime through SetEnabled,
// which is how the [engine] assertions setting is applied.
package check

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Failure is the panic value of a failed check.
type Failure struct {
	Msg string
}

func (f *Failure) Error() string { return "check failed: " + f.Msg }

var enabled atomic.Bool

func init() {
	enabled.Store(compiled)
}

// SetEnabled toggles runtime checking. It has no effect in release builds.
func SetEnabled(on bool) {
	enabled.Store(compiled && on)
}

// Enabled reports whether failed checks currently panic.
func Enabled() bool {
	return compiled && enabled.Load()
}

// True panics with a *Failure when cond is false and checks are enabled.
func True(cond bool, format string, args ...any) {
	if compiled && !cond && enabled.Load() {
		panic(&Failure{Msg: fmt.Sprintf(format, args...)})
	}
}

// Catch runs fn and converts a *Failure panic into an error.
// Any other panic is re-raised.
func Catch(fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if f, ok := rec.(*Failure); ok {
				err = f
				return
			}
			panic(rec)
		}
	}()
	fn()
	return nil
}

// IsFailure reports whether err is (or wraps) a failed check.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}
