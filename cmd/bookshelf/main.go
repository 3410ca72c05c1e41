package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/bookshelf/internal/cli"
	"github.com/vvka-141/bookshelf/pkg/bookshelf"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(bookshelf.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(bookshelf.ExitCodeForError(err))
	}
}
