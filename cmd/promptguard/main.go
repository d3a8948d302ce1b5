// Command promptguard scans text for prompt-injection attempts and
// sensitive-data leaks from the shell: a one-shot scan, a chunked stream
// over long input, an interactive configuration wizard, and a REPL for
// trying patterns against ad hoc strings.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
