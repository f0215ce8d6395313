package main

import (
	"os"

	"employerexport/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
