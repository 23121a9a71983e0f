package main

import (
	"os"

	"github.com/ytpilot/ytpilot/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
