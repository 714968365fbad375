package main

import (
	"fmt"
	"os"

	"github.com/casadoar/payrecon/internal/cli"
	"github.com/casadoar/payrecon/internal/config"
)

func main() {
	_ = config.Load()

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
