package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/girste/shieldctl/internal/errors"
	"github.com/girste/shieldctl/internal/output"
	"github.com/girste/shieldctl/internal/system"
	"github.com/girste/shieldctl/internal/systemd"
)

// RunAudit executes the audit command
func RunAudit() int {
	threshold := 8.0
	showAll := false
	formatType := "text"
	outputFile := ""

	for i := 2; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch {
		case strings.HasPrefix(arg, "--threshold="):
			threshold = parseFloatFlag("--threshold", strings.TrimPrefix(arg, "--threshold="))
		case arg == "--threshold" && i+1 < len(os.Args):
			threshold = parseFloatFlag("--threshold", os.Args[i+1])
			i++
		case arg == "--all":
			showAll = true
		case strings.HasPrefix(arg, "--format="):
			formatType = strings.TrimPrefix(arg, "--format=")
		case arg == "--format" && i+1 < len(os.Args):
			formatType = os.Args[i+1]
			i++
		case strings.HasPrefix(arg, "--output="):
			outputFile = strings.TrimPrefix(arg, "--output=")
		case arg == "--output" && i+1 < len(os.Args):
			outputFile = os.Args[i+1]
			i++
		case arg == "--help" || arg == "-h":
			PrintAuditHelp()
			return 0
		}
	}

	if !system.Exists("systemd-analyze") {
		fmt.Fprintf(os.Stderr, "Error: %v: systemd-analyze\n", errors.ErrCommandNotFound)
		return 2
	}

	ctx := context.Background()
	analyzer := systemd.NewAnalyzer(systemd.NewCtl(nil))

	var services []systemd.ServiceAnalysis
	if showAll {
		for _, unit := range analyzer.ListServices(ctx) {
			if analysis := analyzer.Analyze(ctx, unit); analysis != nil {
				services = append(services, *analysis)
			}
		}
	} else {
		services = analyzer.HighExposure(ctx, threshold)
	}

	report := output.NewAuditReport(threshold, services)

	var rendered string
	switch formatType {
	case "json":
		var err error
		rendered, err = report.JSON()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render report: %v\n", err)
			return 2
		}
	case "text":
		rendered = report.Text()
	default:
		fmt.Fprintf(os.Stderr, "Unknown format: %s (want text or json)\n", formatType)
		return 1
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(rendered), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputFile, err)
			return 2
		}
		return 0
	}

	fmt.Print(rendered)
	return 0
}
