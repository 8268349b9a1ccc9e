// Command queryctl parses shopping queries from the command line and runs
// golden case files against the parser.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
