package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/hylla/rewind/internal/cli"
)

func main() {
	if err := fang.Execute(context.Background(), cli.NewRootCommand()); err != nil {
		os.Exit(1)
	}
}
