package main

import (
	"fmt"
	"os"

	"github.com/settle-sh/settle/cmd/settle/commands"
)

func main() {
	rootCmd := commands.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "settle: %v\n", err)
		os.Exit(1)
	}
}
