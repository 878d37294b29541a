package ilerr

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Bug is an internal consistency violation: the checker broke one of its
// own invariants and the results for the body cannot be trusted.
// It carries the stack of where it was raised.
type Bug struct {
	cause error
}

func NewBug(format string, args ...any) *Bug {
	return &Bug{cause: errors.Errorf(format, args...)}
}

// BugFromDelayed turns delayed bug reports into a single fatal Bug
func BugFromDelayed(delayed []error) *Bug {
	msgs := make([]string, len(delayed))
	for i, d := range delayed {
		msgs[i] = d.Error()
	}
	return &Bug{cause: errors.Wrap(delayed[0], fmt.Sprintf("%d delayed bug(s) in a body without errors: %s", len(delayed), strings.Join(msgs, "; ")))}
}

func (b *Bug) Error() string { return "internal error: " + b.cause.Error() }
func (b *Bug) Unwrap() error { return b.cause }

// Format prints the stack of the bug with %+v
func (b *Bug) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		_, _ = fmt.Fprintf(s, "internal error: %+v", b.cause)
		return
	}
	_, _ = fmt.Fprint(s, b.Error())
}

// DelayedBug records an invariant violation that is only fatal when no
// other error explains it
func DelayedBug(format string, args ...any) error {
	return errors.Errorf(format, args...)
}
