package render

import (
	"time"

	"incidentdemo/internal/scenario"
)

// Renderer binds the card and plan factories to a display time zone.
type Renderer struct {
	Location *time.Location
}

func (r Renderer) Card(output scenario.AgentOutput) Card {
	return RenderCard(output, r.Location)
}

func (r Renderer) Plan(plan scenario.ResponsePlan, now time.Time) Plan {
	return RenderPlan(plan, now, r.Location)
}
