package style

import (
	"fmt"

	"github.com/pterm/pterm"
)

// Status of one install step as shown while an install runs
type Status string

const (
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

// StatusStyle returns the appropriate pterm style for a status
func StatusStyle(status Status) *pterm.Style {
	switch status {
	case StatusDone:
		return pterm.NewStyle(pterm.FgGreen)
	case StatusFailed:
		return pterm.NewStyle(pterm.BgRed, pterm.FgWhite, pterm.Bold)
	default:
		return pterm.NewStyle(pterm.FgGray)
	}
}

// StepLabels are the human readable names of install states, keyed by
// their String form
var StepLabels = map[string]string{
	"planned":           "Checking game directory",
	"api_resolved":      "Detected graphics API",
	"variant_resolved":  "Selected renderer build",
	"binary_staged":     "Extracted renderer",
	"binary_installed":  "Installed renderer",
	"shaders_staged":    "Merged shader sources",
	"shaders_installed": "Installed shaders",
	"recorded":          "Saved installation record",
	"failed":            "Install failed",
}

// RenderStep renders one progress line for a state name
func RenderStep(state string, status Status) string {
	label, ok := StepLabels[state]
	if !ok {
		label = state
	}
	marker := "•"
	switch status {
	case StatusDone:
		marker = "✓"
	case StatusFailed:
		marker = "✗"
	}
	return fmt.Sprintf("  %s %s", StatusStyle(status).Sprint(marker), label)
}
