package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/girste/shieldctl/internal/harden"
)

// RunRevert executes the revert command
func RunRevert() int {
	service := ""
	configDir := ""
	overrideDir := ""

	for i := 2; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch {
		case strings.HasPrefix(arg, "--config="):
			configDir = strings.TrimPrefix(arg, "--config=")
		case arg == "--config" && i+1 < len(os.Args):
			configDir = os.Args[i+1]
			i++
		case strings.HasPrefix(arg, "--override-dir="):
			overrideDir = strings.TrimPrefix(arg, "--override-dir=")
		case arg == "--override-dir" && i+1 < len(os.Args):
			overrideDir = os.Args[i+1]
			i++
		case arg == "--help" || arg == "-h":
			PrintRevertHelp()
			return 0
		case !strings.HasPrefix(arg, "-") && service == "":
			service = arg
		}
	}

	if service == "" {
		fmt.Fprintln(os.Stderr, "Error: specify a service to revert")
		return 1
	}

	requireRoot()

	engine, err := harden.NewEngine(harden.Options{
		ConfigDir:   configDir,
		OverrideDir: overrideDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 2
	}

	fmt.Printf("Reverting hardening for %s\n", service)
	if err := engine.Revert(context.Background(), service); err != nil {
		fmt.Fprintf(os.Stderr, "Revert failed: %v\n", err)
		return 1
	}
	fmt.Printf("Rolled back %s\n", service)
	return 0
}
