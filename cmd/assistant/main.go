package main

import (
	"os"

	"github.com/anime-mvp/assistant/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
