package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(run).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "briar_rose:", err)
		os.Exit(1)
	}
}
