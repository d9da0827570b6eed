// Command resale cleans HDB resale price datasets.
package main

import (
	"os"

	"resale/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
