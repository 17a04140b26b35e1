// Package external runs pipeline stages as operating system processes.
//
// A stage whose first token starts with "!" runs the named program. Accepted objects are written
// to its standard input as JSON lines and every line of its standard output is pushed downstream,
// decoded from JSON when possible. The process is started with ARGPIPE_INPUT=jsonl so an argpipe
// program on the other side reads its standard input as the input stage of its own pipeline.
package external
