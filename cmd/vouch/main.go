package main

import (
	"os"

	"github.com/vouchsec/vouch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
