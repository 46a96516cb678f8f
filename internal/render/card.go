package render

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"incidentdemo/internal/scenario"
)

type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// ConfidenceBand classifies a confidence score: above 0.80 is high,
// 0.60 through 0.80 is medium, anything lower is low.
func ConfidenceBand(confidence float64) Band {
	switch {
	case confidence > 0.80:
		return BandHigh
	case confidence >= 0.60:
		return BandMedium
	default:
		return BandLow
	}
}

const (
	labelViewDetails = "View Details"
	labelHideDetails = "Hide Details"
	labelCopy        = "Copy JSON"
	labelCopied      = "Copied!"

	// CopiedFor is how long a copy button shows its confirmation label.
	CopiedFor = 2000 * time.Millisecond
)

// CopyButton is the per-instance state of a copy control.
type CopyButton struct {
	Copied bool
	Gen    int
}

func (b CopyButton) Label() string {
	if b.Copied {
		return labelCopied
	}
	return labelCopy
}

// Confirm switches the label to the confirmation text under a new
// generation, so a pending revert from an earlier copy no longer applies.
func (b CopyButton) Confirm(gen int) CopyButton {
	return CopyButton{Copied: true, Gen: gen}
}

// Expire reverts the label if gen is still the latest confirmation.
func (b CopyButton) Expire(gen int) CopyButton {
	if gen != b.Gen {
		return b
	}
	b.Copied = false
	return b
}

// Card is the display fragment for one agent output.
type Card struct {
	AgentType         string
	AgentName         string
	StatusText        string
	StatusStyle       string
	Timestamp         string
	Reasoning         string
	ConfidencePercent int
	Band              Band
	Escalation        bool
	EscalationReason  string
	Detail            string

	Expanded bool
	Copy     CopyButton
}

func (c Card) ToggleLabel() string {
	if c.Expanded {
		return labelHideDetails
	}
	return labelViewDetails
}

func (c Card) Toggle() Card {
	c.Expanded = !c.Expanded
	return c
}

// FillWidth returns the number of cells of a width-cell bar that the
// confidence fill covers.
func (c Card) FillWidth(width int) int {
	if width <= 0 {
		return 0
	}
	pct := clampPercent(c.ConfidencePercent)
	return int(math.Round(float64(width) * float64(pct) / 100))
}

// RenderCard builds a fresh card for an agent output. Times are shown in loc.
func RenderCard(output scenario.AgentOutput, loc *time.Location) Card {
	pct := int(math.Round(output.Confidence * 100))
	card := Card{
		AgentType:         output.AgentType,
		AgentName:         output.AgentName,
		StatusText:        statusText(output.Status),
		StatusStyle:       output.Status,
		Timestamp:         timeOfDay(output.Timestamp, loc),
		Reasoning:         output.Reasoning,
		ConfidencePercent: pct,
		Band:              ConfidenceBand(output.Confidence),
		Detail:            PrettyJSON(output.Source()),
	}
	if output.EscalationRequired {
		card.Escalation = true
		card.EscalationReason = output.EscalationReason
	}
	return card
}

func statusText(status string) string {
	if status == "success" {
		return "Completed ✓"
	}
	return strings.ToUpper(status)
}

func timeOfDay(raw string, loc *time.Location) string {
	parsed, err := parseISO(raw)
	if err != nil {
		return "--:--:--"
	}
	if loc == nil {
		loc = time.Local
	}
	return parsed.In(loc).Format("15:04:05")
}

func parseISO(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339Nano, trimmed)
}

// PrettyJSON re-indents a JSON value with two spaces. Input that is not
// valid JSON is returned unchanged.
func PrettyJSON(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return string(raw)
	}
	return out.String()
}

func clampPercent(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
