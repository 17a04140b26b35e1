// Package mapping turns pipeline objects into action invocations.
//
// An object either becomes the value of the action's pipeline target argument, or it is
// shredded: each of its properties whose name matches an argument is appended to the stage
// command line as a --name=value token.
package mapping
