// main is the entry point for the devscore CLI.
package main

import (
	"github.com/huangsam/devscore/cmd"
	"github.com/huangsam/devscore/internal/contract"
)

func main() {
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Command failed", err)
	}
}
