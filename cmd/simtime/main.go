package main

import (
	"os"

	"simtime/cmd/simtime/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
