package main

import (
	"os"

	"github.com/joel-danjuma/insureflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
