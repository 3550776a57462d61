package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yourorg/chunkmill/internal/cli"
)

func main() {
	if cli.IsSlot() {
		if err := cli.ServeSlot(context.Background(), os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "slot:", err)
			os.Exit(1)
		}
		return
	}
	if err := cli.NewSortCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
