package main

import (
	"os"

	"Chronos/Commands"
)

func main() {
	if err := Commands.Execute(); err != nil {
		os.Exit(1)
	}
}
