package main

import (
	"fmt"
	"os"

	"github.com/girste/shieldctl/cmd/shieldctl/commands"
)

func main() {
	if len(os.Args) < 2 {
		commands.PrintHelp()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "audit":
		os.Exit(commands.RunAudit())

	case "harden":
		os.Exit(commands.RunHarden())

	case "revert":
		os.Exit(commands.RunRevert())

	case "serve":
		commands.RunServe()
		os.Exit(0)

	case "version", "--version", "-v":
		commands.PrintVersion()
		os.Exit(0)

	case "help", "--help", "-h":
		commands.PrintHelp()
		os.Exit(0)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		commands.PrintHelp()
		os.Exit(1)
	}
}
