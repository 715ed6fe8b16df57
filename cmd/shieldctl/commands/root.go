package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// requireRoot terminates the process when not running as root.
// Mutating commands write under /etc and restart services; nothing
// useful can happen without privileges.
func requireRoot() {
	if os.Geteuid() != 0 {
		fmt.Fprintln(os.Stderr, "Error: this command requires root privileges. Re-run with sudo.")
		os.Exit(1)
	}
}

// parseFloatFlag parses a float flag value, exiting on garbage input.
func parseFloatFlag(name, value string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid value for %s: %q\n", name, value)
		os.Exit(1)
	}
	return f
}
