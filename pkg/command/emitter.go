package command

// Emitter receives the objects written by an action.
type Emitter interface {
	Emit(o any) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(o any) error

// Emit calls f(o).
func (f EmitterFunc) Emit(o any) error {
	return f(o)
}

// Invocation is one call of an action: its command line tokens and, optionally,
// the value assigned to the pipeline target argument.
type Invocation struct {
	Tokens    []string
	Direct    any
	HasDirect bool
}
