package assist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient returns a canned response without a model server.
type stubClient struct {
	response  string
	err       error
	available bool
}

func (s *stubClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	return s.response, s.err
}

func (s *stubClient) Available(ctx context.Context) bool { return s.available }

const draftResponse = "```json\n" + `{
  "requirement_name": "Billing Portal",
  "epics": [
    {
      "name": "Invoice Engine",
      "description": "Generate and deliver invoices.",
      "functional_requirements": ["PDF Export", "Email Delivery"]
    },
    {
      "name": "Payment Tracking",
      "description": "Record incoming payments.",
      "functional_requirements": ["Reconciliation"]
    }
  ]
}` + "\n```"

func TestDraft_AnnotatesPreviewIDs(t *testing.T) {
	svc := NewDraftService(&stubClient{response: draftResponse, available: true}, true)

	preview, err := svc.Draft(context.Background(), "LT", "L&T Connect", "We need billing.")
	require.NoError(t, err)

	assert.Equal(t, "Billing Portal", preview.RequirementName)
	assert.Equal(t, "LT-BIL-01", preview.RequirementID)

	require.Len(t, preview.Epics, 2)
	assert.Equal(t, "LT-BIL-INV-01", preview.Epics[0].EpicID)
	assert.Equal(t, "LT-BIL-PAY-02", preview.Epics[1].EpicID)

	require.Len(t, preview.Epics[0].FunctionalRequirements, 2)
	assert.Equal(t, "LT-BIL-INV-PDF-01", preview.Epics[0].FunctionalRequirements[0].FRID)
	assert.Equal(t, "LT-BIL-INV-EMA-02", preview.Epics[0].FunctionalRequirements[1].FRID)
}

func TestDraft_Disabled(t *testing.T) {
	svc := NewDraftService(&stubClient{response: draftResponse}, false)

	_, err := svc.Draft(context.Background(), "LT", "L&T Connect", "anything")
	assert.True(t, errors.Is(err, ErrDisabled))

	// A nil client is disabled no matter what the flag says.
	svc = NewDraftService(nil, true)
	_, err = svc.Draft(context.Background(), "LT", "L&T Connect", "anything")
	assert.True(t, errors.Is(err, ErrDisabled))
	assert.False(t, svc.Available(context.Background()))
}

func TestDraft_RejectsEmptyBreakdown(t *testing.T) {
	svc := NewDraftService(&stubClient{
		response: `{"requirement_name": "Billing", "epics": []}`,
	}, true)

	_, err := svc.Draft(context.Background(), "LT", "L&T Connect", "anything")
	assert.True(t, errors.Is(err, ErrInvalidOutput))
}

func TestDraft_PropagatesClientErrors(t *testing.T) {
	svc := NewDraftService(&stubClient{err: ErrUnavailable}, true)

	_, err := svc.Draft(context.Background(), "LT", "L&T Connect", "anything")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestValidateDraft(t *testing.T) {
	tooMany := Draft{RequirementName: "R"}
	for i := 0; i < maxEpics+1; i++ {
		tooMany.Epics = append(tooMany.Epics, EpicDraft{Name: "E"})
	}

	cases := []struct {
		name  string
		draft Draft
		ok    bool
	}{
		{"valid", Draft{RequirementName: "R", Epics: []EpicDraft{{Name: "E"}}}, true},
		{"empty requirement name", Draft{Epics: []EpicDraft{{Name: "E"}}}, false},
		{"epic with empty name", Draft{RequirementName: "R", Epics: []EpicDraft{{Name: " "}}}, false},
		{"too many epics", tooMany, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateDraft(tc.draft)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
