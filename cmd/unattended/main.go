// Command unattended drives an interactive installer inside a detached tmux
// session, answering its prompts so nobody has to sit at the terminal.
package main

import (
	"os"
)

// Set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
