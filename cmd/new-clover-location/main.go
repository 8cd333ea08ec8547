package main

import (
	"fmt"
	"os"

	"github.com/kilianp07/clover/cmd"
)

func main() {
	if err := cmd.NewLocationCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
