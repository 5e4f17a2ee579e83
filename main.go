package main

import (
	"fmt"
	"os"

	"github.com/bottlehq/bottle/internal/cmd"
	"github.com/bottlehq/bottle/internal/execshell"
)

func main() {
	err := cmd.Execute()
	// The pool has no implicit teardown; kill any shells we started.
	execshell.Shared().Clear()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
