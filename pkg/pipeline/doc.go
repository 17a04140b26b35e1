// Package pipeline runs command lines where actions are chained with "=>".
//
// The objects emitted by an action flow into the next action of the line: an object either
// becomes the pipeline target argument of the next action, or its properties are turned into
// the next action flags. Every element of the line after the first one is a stage running on
// its own goroutine, fed through an unbounded queue.
//
// A Manager owns the stages of one line. In serialized mode the objects emitted by a stage are
// held back until the stage is drained, so stages run one after the other. In parallel mode
// objects are handed over as soon as they are emitted and every stage runs concurrently.
//
// Draining goes down the line: draining the first stage drains the second once the first is
// done, and so on. Errors raised by stages do not stop the pipeline, they are collected and
// returned by the blocking drain.
package pipeline
