// Command moneybot is the conversational bookkeeping and price alert assistant.
package main

import (
	"os"

	"github.com/fatih/color"

	"moneybot/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
