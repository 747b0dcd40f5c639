package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/harrison/toygrep/internal/cmd"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		code := cmd.ExitTrouble
		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.Code
			if exitErr.Err == nil {
				os.Exit(code)
			}
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(code)
	}
}
