package scenario

import (
	"bytes"
	"encoding/json"
	"strings"
)

type Record struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Input            json.RawMessage `json:"input"`
	MonitoringOutput AgentOutput     `json:"monitoringOutput"`
	AnalysisOutput   AgentOutput     `json:"analysisOutput"`
	ResponseOutput   AgentOutput     `json:"responseOutput"`

	plan ResponsePlan
}

// Plan returns the response plan decoded from the response stage at load time.
func (r Record) Plan() ResponsePlan {
	return r.plan
}

// Output returns the agent output for a stage name, or false for unknown names.
func (r Record) Output(stage string) (AgentOutput, bool) {
	switch stage {
	case "monitoring":
		return r.MonitoringOutput, true
	case "analysis":
		return r.AnalysisOutput, true
	case "response":
		return r.ResponseOutput, true
	default:
		return AgentOutput{}, false
	}
}

type AgentOutput struct {
	AgentType          string          `json:"agentType"`
	AgentName          string          `json:"agentName"`
	Status             string          `json:"status"`
	Timestamp          string          `json:"timestamp"`
	Reasoning          string          `json:"reasoning"`
	Confidence         float64         `json:"confidence"`
	EscalationRequired bool            `json:"escalationRequired"`
	EscalationReason   string          `json:"escalationReason"`
	Data               json.RawMessage `json:"data,omitempty"`

	raw json.RawMessage
}

func (o *AgentOutput) UnmarshalJSON(buf []byte) error {
	type plain AgentOutput
	var decoded plain
	if err := json.Unmarshal(buf, &decoded); err != nil {
		return err
	}
	*o = AgentOutput(decoded)
	o.raw = append(json.RawMessage(nil), buf...)
	return nil
}

// Source returns the record exactly as it appeared in the scenario file.
// Outputs built in code have no source and are marshalled instead.
func (o AgentOutput) Source() json.RawMessage {
	if len(o.raw) > 0 {
		return o.raw
	}
	type plain AgentOutput
	buf, err := json.Marshal(plain(o))
	if err != nil {
		return nil
	}
	return buf
}

type ResponsePlan struct {
	Severity       string          `json:"severity"`
	Summary        string          `json:"summary"`
	ActionPlan     ActionPlan      `json:"actionPlan"`
	Playbooks      []Playbook      `json:"playbooks"`
	HumanInTheLoop *HumanInTheLoop `json:"humanInTheLoop,omitempty"`
	SafetyControls []string        `json:"safetyControls"`
}

type ActionPlan struct {
	Priority1 []Action `json:"priority1"`
	Priority2 []Action `json:"priority2"`
	Priority3 []Action `json:"priority3"`
}

// Groups returns the three priority buckets in fixed order.
func (p ActionPlan) Groups() [3][]Action {
	return [3][]Action{p.Priority1, p.Priority2, p.Priority3}
}

func (p ActionPlan) Len() int {
	return len(p.Priority1) + len(p.Priority2) + len(p.Priority3)
}

type Playbook struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

type HumanInTheLoop struct {
	Required         bool   `json:"required"`
	Action           string `json:"action"`
	RiskLevel        string `json:"riskLevel"`
	Reason           string `json:"reason"`
	EscalationTarget string `json:"escalationTarget"`
	SLA              string `json:"sla"`
}

// Action is one recommended step. Scenario files write it either as an
// object carrying "action" or "text", or as a bare value.
type Action struct {
	Action string `json:"action,omitempty"`
	Text   string `json:"text,omitempty"`

	raw json.RawMessage
}

func (a *Action) UnmarshalJSON(buf []byte) error {
	a.raw = append(json.RawMessage(nil), bytes.TrimSpace(buf)...)
	a.Action, a.Text = "", ""
	if len(a.raw) == 0 || a.raw[0] != '{' {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(a.raw, &fields); err != nil {
		return err
	}
	a.Action = stringField(fields["action"])
	a.Text = stringField(fields["text"])
	return nil
}

func (a Action) MarshalJSON() ([]byte, error) {
	if len(a.raw) > 0 {
		return a.raw, nil
	}
	type plain Action
	return json.Marshal(plain(a))
}

// Display returns the first non-empty of the action field, the text field,
// and the value itself.
func (a Action) Display() string {
	if a.Action != "" {
		return a.Action
	}
	if a.Text != "" {
		return a.Text
	}
	if len(a.raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(a.raw, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, a.raw); err != nil {
		return string(a.raw)
	}
	return compact.String()
}

// NewAction builds an action with an explicit action field.
func NewAction(text string) Action {
	return Action{Action: text}
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(raw))
	switch trimmed {
	case "null", "false", `""`, "0":
		return ""
	}
	return trimmed
}
