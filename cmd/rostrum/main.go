package main

import (
	"os"

	"github.com/avandyck/rostrum/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
