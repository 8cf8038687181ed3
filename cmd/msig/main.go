// Command msig runs and operates a threshold-approval treasury.
package main

import (
	"os"

	"github.com/bitfsorg/libmultisig-go/cmd/msig/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
