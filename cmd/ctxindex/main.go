// Package main provides the entry point for the ctxindex CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/ctxindex/cmd/ctxindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
