package typeck

import (
	"log/slog"

	"github.com/pkg/errors"
)

// FallbackMode decides whether fallback may default a variable to the
// opaque type it was created for
type FallbackMode uint8

const (
	FallbackModeNoOpaque FallbackMode = iota
	FallbackModeAll
)

func (m FallbackMode) String() string {
	if m == FallbackModeAll {
		return "all"
	}
	return "no-opaque"
}

func (m FallbackMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *FallbackMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "all":
		*m = FallbackModeAll
	case "no-opaque":
		*m = FallbackModeNoOpaque
	default:
		return errors.Errorf("unknown fallback mode %q, expected 'all' or 'no-opaque'", text)
	}
	return nil
}

type Config struct {
	// FallbackMode is the mode of the last fallback pass. A first pass
	// always runs without considering opaque types.
	FallbackMode FallbackMode `yaml:"fallback"`
	// PreserveAllUserAnnotations stores every user written type annotation,
	// even those unification could not have changed
	PreserveAllUserAnnotations bool `yaml:"preserveAllUserAnnotations"`
	WarnUnreachable            bool `yaml:"warnUnreachable"`
	// Logger is tagged with section=typeck by the checker. Nil means log.DefaultLogger.
	Logger *slog.Logger `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		FallbackMode:    FallbackModeAll,
		WarnUnreachable: true,
	}
}
