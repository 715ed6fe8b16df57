// Package output renders audit results for the terminal and for
// machine consumers.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/girste/shieldctl/internal/systemd"
)

// AuditReport is a snapshot of service exposure at one point in time.
type AuditReport struct {
	ReportID  string                    `json:"report_id"`
	Timestamp string                    `json:"timestamp"`
	Threshold float64                   `json:"threshold"`
	Services  []systemd.ServiceAnalysis `json:"services"`
}

// NewAuditReport builds a report over the given analyses.
func NewAuditReport(threshold float64, services []systemd.ServiceAnalysis) AuditReport {
	return AuditReport{
		ReportID:  uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Threshold: threshold,
		Services:  services,
	}
}

// Text renders the report as an aligned table.
func (r AuditReport) Text() string {
	if len(r.Services) == 0 {
		return fmt.Sprintf("No services found with exposure >= %.1f\n", r.Threshold)
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tSCORE\tLEVEL\tACTIVE\tENABLED")
	for _, s := range r.Services {
		score := "N/A"
		if s.ExposureScore != nil {
			score = fmt.Sprintf("%.1f", *s.ExposureScore)
		}
		level := s.ExposureLevel
		if level == "" {
			level = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.Name, score, level, yesNo(s.IsActive), yesNo(s.IsEnabled))
	}
	w.Flush()

	fmt.Fprintf(&b, "\nTotal: %d services\n", len(r.Services))
	return b.String()
}

// JSON renders the report as indented JSON.
func (r AuditReport) JSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// HardenSummary is the human-readable outcome line for one apply
// attempt.
func HardenSummary(serviceName, profileApplied string, success, rollback bool, prev, next *float64, errMsg string) string {
	if success {
		improvement := ""
		if prev != nil && next != nil {
			improvement = fmt.Sprintf(" (%.1f -> %.1f)", *prev, *next)
		}
		return fmt.Sprintf("Successfully hardened %s with profile %s%s", serviceName, profileApplied, improvement)
	}

	msg := fmt.Sprintf("Failed to harden %s: %s", serviceName, errMsg)
	if rollback {
		msg += " (automatic rollback performed)"
	}
	return msg
}
