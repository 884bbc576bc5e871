package main

import (
	"os"

	"github.com/ariel-frischer/taglog/internal/cli"
)

func main() {
	os.Exit(cli.ExitCode(cli.Execute()))
}
