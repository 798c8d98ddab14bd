package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/lntconnect/connect/hierarchy"
)

// Bounds on what a draft may contain. Anything larger is almost certainly
// model rambling, not a usable breakdown.
const (
	maxEpics        = 10
	maxFRsPerEpic   = 15
	maxNameLength   = 200
	draftSystemRole = "You are a requirements analyst for software delivery projects. " +
		"You turn a client requirement into a concise epic breakdown. " +
		"Respond with JSON only, no prose."
)

// Draft is the structure the model is asked to produce.
type Draft struct {
	RequirementName string      `json:"requirement_name"`
	Epics           []EpicDraft `json:"epics"`
}

// EpicDraft is one epic with its functional requirements.
type EpicDraft struct {
	Name                   string   `json:"name"`
	Description            string   `json:"description"`
	FunctionalRequirements []string `json:"functional_requirements"`
}

// Preview is a draft annotated with the hierarchy ids each element would
// receive if created as the next children of the project. Nothing is
// persisted; sequence numbers start at 1 and are previews only.
type Preview struct {
	RequirementName string        `json:"requirement_name"`
	RequirementID   string        `json:"requirement_id"`
	Epics           []EpicPreview `json:"epics"`
}

// EpicPreview is an annotated epic draft.
type EpicPreview struct {
	Name                   string      `json:"name"`
	Description            string      `json:"description"`
	EpicID                 string      `json:"epic_id"`
	FunctionalRequirements []FRPreview `json:"functional_requirements"`
}

// FRPreview is an annotated functional-requirement draft.
type FRPreview struct {
	Name string `json:"name"`
	FRID string `json:"fr_id"`
}

// DraftService produces requirement-breakdown previews for a project.
type DraftService struct {
	client  Client
	enabled bool
}

// NewDraftService creates the draft service. A nil client or disabled
// config leaves the service answering ErrDisabled.
func NewDraftService(client Client, enabled bool) *DraftService {
	return &DraftService{client: client, enabled: enabled && client != nil}
}

// Enabled reports whether drafting is configured.
func (s *DraftService) Enabled() bool { return s.enabled }

// Available reports whether the model server answers right now.
func (s *DraftService) Available(ctx context.Context) bool {
	return s.enabled && s.client.Available(ctx)
}

// Draft asks the model for an epic breakdown of a prose client
// requirement and annotates it with preview hierarchy ids for the given
// project.
func (s *DraftService) Draft(ctx context.Context, projectCode, projectName, description string) (*Preview, error) {
	if !s.enabled {
		return nil, ErrDisabled
	}

	raw, err := s.client.Generate(ctx, draftSystemRole, draftPrompt(description))
	if err != nil {
		return nil, err
	}

	draft, err := ExtractJSON[Draft](raw, validateDraft)
	if err != nil {
		return nil, err
	}

	return annotate(draft, projectCode, projectName), nil
}

func draftPrompt(description string) string {
	return fmt.Sprintf(`Break the following client requirement into epics and functional requirements.

Client requirement:
%s

Respond with exactly this JSON shape:
{
  "requirement_name": "short name for the requirement",
  "epics": [
    {
      "name": "epic name",
      "description": "one sentence",
      "functional_requirements": ["fr name", "fr name"]
    }
  ]
}

Use between 2 and %d epics and at most %d functional requirements per epic.`,
		description, maxEpics, maxFRsPerEpic)
}

func validateDraft(d Draft) error {
	if strings.TrimSpace(d.RequirementName) == "" {
		return fmt.Errorf("empty requirement name")
	}
	if len(d.RequirementName) > maxNameLength {
		return fmt.Errorf("requirement name too long")
	}
	if len(d.Epics) == 0 {
		return fmt.Errorf("no epics")
	}
	if len(d.Epics) > maxEpics {
		return fmt.Errorf("too many epics: %d", len(d.Epics))
	}
	for i, e := range d.Epics {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("epic %d has an empty name", i+1)
		}
		if len(e.FunctionalRequirements) > maxFRsPerEpic {
			return fmt.Errorf("epic %q has too many functional requirements", e.Name)
		}
	}
	return nil
}

// annotate derives the preview hierarchy ids. The requirement previews as
// the project's next requirement at sequence 1; epics and FRs number from
// 1 within their parent.
func annotate(d Draft, projectCode, projectName string) *Preview {
	p := &Preview{
		RequirementName: d.RequirementName,
		RequirementID:   hierarchy.RequirementID(projectCode, projectName, d.RequirementName, 1),
	}

	for i, e := range d.Epics {
		ep := EpicPreview{
			Name:        e.Name,
			Description: e.Description,
			EpicID:      hierarchy.EpicID(projectCode, projectName, d.RequirementName, e.Name, i+1),
		}
		for j, fr := range e.FunctionalRequirements {
			ep.FunctionalRequirements = append(ep.FunctionalRequirements, FRPreview{
				Name: fr,
				FRID: hierarchy.FRID(projectCode, projectName, d.RequirementName, e.Name, fr, j+1),
			})
		}
		p.Epics = append(p.Epics, ep)
	}
	return p
}
