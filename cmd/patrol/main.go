package main

import (
	"os"

	"github.com/dshills/patrol/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
