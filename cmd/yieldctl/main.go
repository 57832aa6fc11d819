// Command yieldctl manages artifacts and records outside the HTTP server.
package main

import (
	"os"

	"cropyield/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
