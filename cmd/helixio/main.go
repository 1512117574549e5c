package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Interrupted follow/serve loops exit quietly.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "helixio: %v\n", err)
		}
		os.Exit(1)
	}
}
