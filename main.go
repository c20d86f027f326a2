package main

import (
	"os"

	"briochat/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
