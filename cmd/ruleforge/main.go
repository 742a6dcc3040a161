package main

import (
	"os"

	"github.com/ruleforge/ruleforge/cmd/ruleforge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
