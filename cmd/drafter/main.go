package main

import (
	"os"

	"drafter/client/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
