package commands

import (
	"fmt"

	"github.com/girste/shieldctl/internal/util"
)

// PrintHelp displays the main help message
func PrintHelp() {
	help := `shieldctl - Automated systemd service hardening

USAGE:
    shieldctl [COMMAND]

COMMANDS:
    audit       Audit services and show security exposure levels
    harden      Apply a hardening profile to a service
    revert      Roll back hardening for a service
    serve       Start MCP server (read-only analysis tools)
    version     Show version
    help        This help

AUDIT OPTIONS (shieldctl audit):
    --threshold=N     Minimum exposure score to report (default: 8.0)
    --all             Show all services, not just high-exposure
    --format=FORMAT   Output format: text, json
    --output=FILE     Write report to a file

HARDEN OPTIONS (shieldctl harden [service]):
    --profile=P        Force a specific profile
    --interactive, -i  Show exposure and confirm before applying
    --dry-run          Show the override without applying it
    --batch            Harden all high-exposure services
    --threshold=N      Exposure threshold for batch mode (default: 8.0)
    --config=DIR       Directory with profiles.yaml and exclusions.yaml
    --override-dir=DIR Root for override files (default: /etc/systemd/system)

EXAMPLES:
    # See which services are most exposed
    shieldctl audit

    # Preview what hardening cups.service would do
    sudo shieldctl harden cups.service --dry-run

    # Harden with the automatically resolved profile
    sudo shieldctl harden cups.service

    # Harden everything scoring 9.0 or worse
    sudo shieldctl harden --batch --threshold=9.0

    # Undo
    sudo shieldctl revert cups.service

CONFIGURATION:
    /etc/shieldctl/profiles.yaml     Hardening profiles and service mappings
    /etc/shieldctl/exclusions.yaml   Services opted out of hardening
    Compiled-in defaults are used when no files exist.

Mutating commands (harden, revert) require root.
`
	fmt.Print(help)
}

// PrintVersion displays version information
func PrintVersion() {
	fmt.Printf("shieldctl version %s\n", util.Version)
}

// PrintAuditHelp displays help for the audit command
func PrintAuditHelp() {
	fmt.Print(`shieldctl audit - Audit systemd service exposure

USAGE:
    shieldctl audit [--threshold=N] [--all] [--format=text|json] [--output=FILE]

Scores come from systemd-analyze security (0 = tight, 10 = wide open).
By default only services at or above the threshold are shown, worst
first. --all lists every service, including ones without a score.
`)
}

// PrintHardenHelp displays help for the harden command
func PrintHardenHelp() {
	fmt.Print(`shieldctl harden - Apply a hardening profile to a service

USAGE:
    shieldctl harden <service> [OPTIONS]
    shieldctl harden --batch [--threshold=N] [OPTIONS]

The profile is resolved in order: --profile flag, explicit service
mapping from profiles.yaml, name heuristics, then the default
system_service profile. The override is written to
<override-dir>/<service>.d/override.conf with a backup of any previous
override. If the service does not come back healthy after restart, the
change is rolled back automatically.
`)
}

// PrintRevertHelp displays help for the revert command
func PrintRevertHelp() {
	fmt.Print(`shieldctl revert - Roll back hardening for a service

USAGE:
    shieldctl revert <service> [--override-dir=DIR]

Restores the backed-up override if one exists, otherwise removes the
override entirely, then reloads systemd and restarts the service.
`)
}

// PrintServeHelp displays help for the serve command
func PrintServeHelp() {
	fmt.Print(`shieldctl serve - Start MCP server

USAGE:
    shieldctl serve

Serves read-only analysis tools (list_services, analyze_service,
audit_services) over stdio. Hardening is never exposed over MCP; use
the CLI with root for that.
`)
}
