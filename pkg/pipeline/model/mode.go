package model

import (
	"strings"

	"github.com/pkg/errors"
)

// Mode is the execution mode of a pipeline manager.
type Mode int

const (
	// SerializedStages runs one stage at a time: objects emitted by a stage are held back
	// until that stage is drained.
	SerializedStages Mode = iota
	// ParallelStages hands emitted objects to the next stage immediately.
	ParallelStages
)

var ErrUnknownMode = errors.New("unknown pipeline mode")

func (m Mode) String() string {
	switch m {
	case SerializedStages:
		return "serialized"
	case ParallelStages:
		return "parallel"
	default:
		return "unknown"
	}
}

// ParseMode converts a mode name into a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "serialized", "serial":
		return SerializedStages, nil
	case "parallel":
		return ParallelStages, nil
	default:
		return SerializedStages, errors.Wrapf(ErrUnknownMode, "%q", name)
	}
}
