// Package cli formats mixpad command output.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/mixpad/internal/models"
)

// OutputFormat is the format for replay output.
type OutputFormat string

const (
	// OutputText is human-readable text.
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption (default).
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to a format. Unknown values are an error.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText:
		return OutputText, nil
	case OutputJSON, "":
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

// ReplayResult is the final state of a replayed session.
type ReplayResult struct {
	State        string        `json:"state"`
	Size         int           `json:"size"`
	CoveredCount int           `json:"covered_count"`
	Labels       []int         `json:"labels,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
	Scene        *models.Scene `json:"scene"`
}

// WriteReplayResult writes res to w in the given format.
func WriteReplayResult(w io.Writer, res *ReplayResult, format OutputFormat) error {
	if format == OutputText {
		writeReplayText(w, res)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func writeReplayText(w io.Writer, res *ReplayResult) {
	fmt.Fprintf(w, "State: %s (%d points, %d clustered)\n", res.State, res.Size, res.CoveredCount)
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
	if res.Scene == nil {
		return
	}
	if res.Scene.Advisory != "" {
		fmt.Fprintf(w, "Advisory: %s\n", res.Scene.Advisory)
	}
	if len(res.Scene.Marks) == 0 {
		return
	}
	fmt.Fprintln(w, "-----------------------------------------")
	for i, m := range res.Scene.Marks {
		fmt.Fprintf(w, "%4d  (%8.4f, %8.4f)  %s\n", i+1, m.Point.X, m.Point.Y, markTag(m))
	}
}

func markTag(m models.Mark) string {
	switch {
	case m.Label != nil:
		return fmt.Sprintf("cluster %d", *m.Label)
	case m.Pending:
		return "pending"
	default:
		return "-"
	}
}
