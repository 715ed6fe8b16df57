package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/girste/shieldctl/internal/harden"
	"github.com/girste/shieldctl/internal/output"
)

// RunHarden executes the harden command
func RunHarden() int {
	service := ""
	profileName := ""
	interactive := false
	dryRun := false
	batch := false
	threshold := 8.0
	configDir := ""
	overrideDir := ""

	for i := 2; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch {
		case strings.HasPrefix(arg, "--profile="):
			profileName = strings.TrimPrefix(arg, "--profile=")
		case arg == "--profile" && i+1 < len(os.Args):
			profileName = os.Args[i+1]
			i++
		case arg == "--interactive" || arg == "-i":
			interactive = true
		case arg == "--dry-run":
			dryRun = true
		case arg == "--batch":
			batch = true
		case strings.HasPrefix(arg, "--threshold="):
			threshold = parseFloatFlag("--threshold", strings.TrimPrefix(arg, "--threshold="))
		case arg == "--threshold" && i+1 < len(os.Args):
			threshold = parseFloatFlag("--threshold", os.Args[i+1])
			i++
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
			PrintHardenHelp()
			return 0
		case !strings.HasPrefix(arg, "-") && service == "":
			service = arg
		}
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

	ctx := context.Background()

	if batch {
		fmt.Println("Batch hardening mode")
		results := harden.NewBatchRunner(engine).Run(ctx, threshold, dryRun)
		for _, r := range results {
			if !r.Success {
				return 1
			}
		}
		return 0
	}

	if service == "" {
		fmt.Fprintln(os.Stderr, "Error: specify a service or use --batch mode")
		return 1
	}

	if interactive && !confirmInteractive(ctx, engine, service) {
		fmt.Println("Cancelled.")
		return 0
	}

	result := engine.Apply(ctx, service, profileName, dryRun)

	fmt.Println(output.HardenSummary(result.ServiceName, result.ProfileApplied,
		result.Success, result.RollbackPerformed, result.PreviousScore, result.NewScore, result.Error))

	if !result.Success {
		return 1
	}
	if dryRun {
		return 0
	}

	printExplanations(engine, result.ProfileApplied)
	return 0
}

// confirmInteractive shows current exposure and the recommended profile,
// then asks before proceeding.
func confirmInteractive(ctx context.Context, engine *harden.Engine, service string) bool {
	if analysis := engine.Analyzer().Analyze(ctx, service); analysis != nil && analysis.ExposureScore != nil {
		fmt.Printf("Current exposure: %.1f %s\n", *analysis.ExposureScore, analysis.ExposureLevel)
	}
	fmt.Printf("Recommended profile: %s\n", engine.Resolve(service))
	fmt.Print("Proceed with hardening? [y/N] ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// printExplanations prints what each applied directive protects
// against.
func printExplanations(engine *harden.Engine, profileName string) {
	prof, ok := engine.Profiles().Lookup(profileName)
	if !ok {
		return
	}
	explanations := prof.Overrides.Explanations()
	if len(explanations) == 0 {
		return
	}

	names := make([]string, 0, len(explanations))
	for name := range explanations {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nApplied directives:")
	for _, name := range names {
		fmt.Printf("  %s: %s\n", name, explanations[name])
	}
}
