package main

import (
	"os"

	"github.com/mweers/mweers.github.io/cmd"
)

func main() {
	root := cmd.NewRootCmd(cmd.DefaultDeps())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
