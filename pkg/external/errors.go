package external

import "github.com/pkg/errors"

var (
	// ErrNoProgram is returned when an external stage does not name a program.
	ErrNoProgram = errors.New("external stage has no program")
	// ErrInputAccept is returned when an object is handed to an input stage.
	ErrInputAccept = errors.New("input stage does not accept objects")
)
