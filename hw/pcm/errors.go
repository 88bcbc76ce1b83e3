package pcm

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrProtocol      = errors.New("protocol error")
)

// ConfigurationError reports a chip used before it has a valid sample rate.
type ConfigurationError struct {
	Chip   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Chip, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ProtocolError reports a sequencing state machine reaching a state or
// header it does not know. The affected voice is stopped.
type ProtocolError struct {
	Chip   string
	State  string
	Header uint8
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: unexpected state %s (header %02x)", e.Chip, e.State, e.Header)
}

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }
