package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(cli.GetExitCode(err))
	}
}
