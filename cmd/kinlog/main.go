package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kinlog-lab/kinlog/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "kinlog:", err)
		os.Exit(1)
	}
}
