package systemd

import (
	"context"
	"regexp"
	"sort"
	"strconv"

	"github.com/girste/shieldctl/internal/log"
)

// Exposure levels reported by systemd-analyze security.
const (
	LevelOK      = "OK"
	LevelMedium  = "MEDIUM"
	LevelExposed = "EXPOSED"
	LevelUnsafe  = "UNSAFE"
)

// Summary line format: "→ Overall exposure level for X: 9.6 UNSAFE 😨"
var exposureRe = regexp.MustCompile(`Overall exposure level.*?:\s+([\d.]+)\s+(\w+)`)

// ServiceAnalysis is the security posture of a single unit, produced
// fresh on each query and never persisted.
type ServiceAnalysis struct {
	Name          string   `json:"name"`
	ExposureScore *float64 `json:"exposure_score,omitempty"`
	ExposureLevel string   `json:"exposure_level,omitempty"`
	IsActive      bool     `json:"is_active"`
	IsEnabled     bool     `json:"is_enabled"`
}

// Score returns the exposure score, treating a missing score as 0.
func (a ServiceAnalysis) Score() float64 {
	if a.ExposureScore == nil {
		return 0
	}
	return *a.ExposureScore
}

// Exposure is a parsed security report summary.
type Exposure struct {
	Score float64
	Level string
}

// ExposureReporter is the narrow seam over the fragile text-parsing of
// the security report, so the matching logic can be swapped or mocked
// without touching callers. A nil Exposure with nil error means the
// report ran but had no parsable summary line.
type ExposureReporter interface {
	ExposureReport(ctx context.Context, unit string) (*Exposure, error)
}

// Analyzer queries exposure and unit state for services.
type Analyzer struct {
	ctl      *Ctl
	reporter ExposureReporter
}

// NewAnalyzer returns an Analyzer backed by the given Ctl.
func NewAnalyzer(ctl *Ctl) *Analyzer {
	return &Analyzer{ctl: ctl, reporter: ctlReporter{ctl}}
}

// WithReporter swaps the exposure reporter. Used by tests.
func (a *Analyzer) WithReporter(r ExposureReporter) *Analyzer {
	a.reporter = r
	return a
}

type ctlReporter struct {
	ctl *Ctl
}

func (r ctlReporter) ExposureReport(ctx context.Context, unit string) (*Exposure, error) {
	out, err := r.ctl.SecurityReport(ctx, unit)
	if err != nil {
		return nil, err
	}
	score, level, ok := ParseExposure(out)
	if !ok {
		return nil, nil
	}
	return &Exposure{Score: score, Level: level}, nil
}

// ParseExposure extracts the score and severity label from the summary
// line of systemd-analyze security output. ok is false when the line
// is absent or malformed.
func ParseExposure(out string) (float64, string, bool) {
	m := exposureRe.FindStringSubmatch(out)
	if m == nil {
		return 0, "", false
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", false
	}
	return score, m[2], true
}

// ListServices returns all known service units. Fails soft: on query
// error it logs and returns an empty slice.
func (a *Analyzer) ListServices(ctx context.Context) []string {
	units, err := a.ctl.ListUnits(ctx)
	if err != nil {
		log.ErrorWithErr(err, "listing services")
		return nil
	}
	return units
}

// Analyze returns the security analysis for a unit, or nil if the
// analysis could not run at all. A report without a parsable summary
// line is not an error; the score and level stay unset.
func (a *Analyzer) Analyze(ctx context.Context, unit string) *ServiceAnalysis {
	exposure, err := a.reporter.ExposureReport(ctx, unit)
	if err != nil {
		log.Warnf("analyzing %s: %v", unit, err)
		return nil
	}

	analysis := &ServiceAnalysis{Name: unit}
	if exposure != nil {
		score := exposure.Score
		analysis.ExposureScore = &score
		analysis.ExposureLevel = exposure.Level
	}

	analysis.IsActive = a.ctl.IsActive(ctx, unit)
	analysis.IsEnabled = a.ctl.IsEnabled(ctx, unit)
	return analysis
}

// HighExposure lists services whose exposure score is at or above
// threshold, sorted descending by score. A service with no score never
// exceeds a positive threshold.
func (a *Analyzer) HighExposure(ctx context.Context, threshold float64) []ServiceAnalysis {
	var high []ServiceAnalysis
	for _, unit := range a.ListServices(ctx) {
		analysis := a.Analyze(ctx, unit)
		if analysis == nil || analysis.ExposureScore == nil {
			continue
		}
		if *analysis.ExposureScore >= threshold {
			high = append(high, *analysis)
		}
	}

	sort.Slice(high, func(i, j int) bool {
		return high[i].Score() > high[j].Score()
	})
	return high
}
