// Command argpipe runs "=>" separated action pipelines.
//
//	argpipe seq --to 5 => square => '$filter' . gt 4
//	argpipe people => greet
//	argpipe --mode parallel ls --path /tmp => '!jq' -c .Name
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
