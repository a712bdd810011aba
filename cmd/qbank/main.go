// Package main is the entry point for the qbank CLI tool.
package main

import (
	"os"

	"github.com/quizbank/qbank/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
