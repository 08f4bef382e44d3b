package main

import (
	"os"

	"github.com/mikai233/hocon-go/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
