package main

import (
	"os"

	"github.com/futig/docqa-backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
