// Command matchctl scores and ranks profiles offline from JSON or CSV files.
package main

import (
	"os"

	"matrimony-match-engine/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
