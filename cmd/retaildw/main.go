// Package main is the entry point for retaildw.
package main

import (
	"fmt"
	"os"

	"retaildw/internal/cli"

	// Register warehouse backends
	_ "retaildw/internal/warehouse/all"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
