package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"incidentdemo/internal/scenario"
)

const PlanTitle = "Final Response Plan"

var priorityLabels = [3]string{"Immediate", "Short-term", "Preventive"}

// Decisions are the placeholder controls of the human approval block.
var Decisions = []string{"Approve", "Request Changes", "Escalate Further"}

type ActionGroup struct {
	Priority int
	Label    string
	Items    []string
}

func (g ActionGroup) Heading() string {
	return fmt.Sprintf("Priority %d (%s)", g.Priority, g.Label)
}

type PlaybookEntry struct {
	Name   string
	Source string
}

type HumanLoop struct {
	Action           string
	RiskLevel        string
	Reason           string
	EscalationTarget string
	SLA              string
	Decisions        []string
}

// Plan is the display fragment for a response plan. Empty sections are
// left zero and skipped by every view.
type Plan struct {
	Severity      string
	SeverityStyle string
	RenderedAt    string
	Summary       string
	Actions       []ActionGroup
	Playbooks     []PlaybookEntry
	HumanLoop     *HumanLoop
	Safety        []string
}

// RenderPlan builds the plan fragment. now is the render moment shown in the
// header; the plan's own timestamps are not used.
func RenderPlan(plan scenario.ResponsePlan, now time.Time, loc *time.Location) Plan {
	if loc == nil {
		loc = time.Local
	}
	out := Plan{
		Severity:      strings.ToUpper(plan.Severity),
		SeverityStyle: plan.Severity,
		RenderedAt:    now.In(loc).Format("2006-01-02 15:04:05"),
		Summary:       plan.Summary,
	}
	for idx, actions := range plan.ActionPlan.Groups() {
		if len(actions) == 0 {
			continue
		}
		items := make([]string, 0, len(actions))
		for _, action := range actions {
			items = append(items, action.Display())
		}
		out.Actions = append(out.Actions, ActionGroup{
			Priority: idx + 1,
			Label:    priorityLabels[idx],
			Items:    items,
		})
	}
	for _, playbook := range plan.Playbooks {
		out.Playbooks = append(out.Playbooks, PlaybookEntry{Name: playbook.Name, Source: playbook.Source})
	}
	if loop := plan.HumanInTheLoop; loop != nil && loop.Required {
		out.HumanLoop = &HumanLoop{
			Action:           loop.Action,
			RiskLevel:        strings.ToUpper(loop.RiskLevel),
			Reason:           loop.Reason,
			EscalationTarget: loop.EscalationTarget,
			SLA:              loop.SLA,
			Decisions:        append([]string(nil), Decisions...),
		}
	}
	if len(plan.SafetyControls) > 0 {
		out.Safety = append([]string(nil), plan.SafetyControls...)
	}
	return out
}

// Markdown lays the plan out as a markdown document: the title, a severity
// and time line, then Body.
func (p Plan) Markdown() string {
	var b strings.Builder
	b.WriteString("# " + PlanTitle + "\n\n")
	meta := []string{}
	if p.Severity != "" {
		meta = append(meta, "**"+escapeMarkdown(p.Severity)+"**")
	}
	meta = append(meta, "_"+escapeMarkdown(p.RenderedAt)+"_")
	b.WriteString(strings.Join(meta, " · ") + "\n")
	if body := p.Body(); body != "" {
		b.WriteString("\n" + body)
	}
	return b.String()
}

// Body is the markdown of the plan sections without the title and meta
// line, for hosts that draw their own header.
func (p Plan) Body() string {
	var b strings.Builder
	if strings.TrimSpace(p.Summary) != "" {
		b.WriteString("\n## Incident Summary\n\n")
		b.WriteString(escapeMarkdown(p.Summary) + "\n")
	}
	if len(p.Actions) > 0 {
		b.WriteString("\n## Recommended Actions\n")
		for _, group := range p.Actions {
			b.WriteString("\n### " + group.Heading() + "\n\n")
			for _, item := range group.Items {
				b.WriteString("- " + escapeMarkdown(item) + "\n")
			}
		}
	}
	if len(p.Playbooks) > 0 {
		b.WriteString("\n## Playbooks Applied\n\n")
		for _, playbook := range p.Playbooks {
			b.WriteString("- **" + escapeMarkdown(playbook.Name) + "**  \n  Source: " + escapeMarkdown(playbook.Source) + "\n")
		}
	}
	if p.HumanLoop != nil {
		loop := p.HumanLoop
		b.WriteString("\n## ⚠ HUMAN-IN-THE-LOOP REQUIRED\n\n")
		b.WriteString("- **Action:** " + escapeMarkdown(loop.Action) + "\n")
		b.WriteString("- **Risk Level:** " + escapeMarkdown(loop.RiskLevel) + "\n")
		b.WriteString("- **Reason:** " + escapeMarkdown(loop.Reason) + "\n")
		b.WriteString("- **Escalation Target:** " + escapeMarkdown(loop.EscalationTarget) + "\n")
		b.WriteString("- **SLA:** " + escapeMarkdown(loop.SLA) + "\n\n")
		buttons := make([]string, 0, len(loop.Decisions))
		for _, decision := range loop.Decisions {
			buttons = append(buttons, "`[ "+decision+" ]`")
		}
		b.WriteString(strings.Join(buttons, "  ") + "\n")
	}
	if len(p.Safety) > 0 {
		b.WriteString("\n## Safety Controls\n\n")
		for _, control := range p.Safety {
			b.WriteString("- " + escapeMarkdown(control) + "\n")
		}
	}
	return strings.TrimLeft(b.String(), "\n")
}

// Preview is the formatted input payload of the selected scenario.
type Preview struct {
	Text string
	Copy CopyButton
}

func RenderPreview(input json.RawMessage) Preview {
	return Preview{Text: PrettyJSON(input)}
}
