// Command chunkfold streams incremental API responses and prints the folded
// result.
package main

import (
	"fmt"
	"os"

	"github.com/jg-phare/chunkfold/cmd/chunkfold/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
