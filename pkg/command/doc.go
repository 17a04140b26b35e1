// Package command declares the actions an argument pipeline can run.
//
// An Action is a typed handler registered under a name. Its arguments are a plain struct whose
// exported fields are described with tags:
//
//	type squareArgs struct {
//		Value int    `flag:"value" short:"v" help:"number to square" pipe:"target"`
//		Label string `flag:"label" extract:"Name"`
//	}
//
// The flag, short and default tags are the ones understood by yargs, which parses the tokens
// of every invocation. The pipe:"target" tag marks the argument receiving whole pipeline objects,
// aliases lists extra property names matched when objects are shredded into arguments, and
// extract names the single property an argument is taken from.
package command
