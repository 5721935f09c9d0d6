package detour

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venueflow/venueflow/pkg/models"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func event() *models.Event {
	return &models.Event{
		EventID:     "ev1",
		CurrentStep: models.StepOffer,
		ChosenDate:  "2026-06-25",
	}
}

func TestDetectDateChange(t *testing.T) {
	res := &models.DetectionResult{Entities: models.Entities{Date: "2026-07-02"}}
	cr := Detect(res, event(), "Can we move the date to July 2?", testNow)
	require.NotNil(t, cr)
	assert.Equal(t, TargetDate, cr.Target)
	assert.Equal(t, "2026-07-02", cr.Value)
	assert.Equal(t, models.StepDate, cr.Target.Step())
}

func TestDetectSameDateIsNotAChange(t *testing.T) {
	res := &models.DetectionResult{Entities: models.Entities{Date: "2026-06-25"}}
	cr := Detect(res, event(), "Actually let's keep the date 2026-06-25", testNow)
	assert.Nil(t, cr)
}

func TestDetectRoomChange(t *testing.T) {
	cr := Detect(&models.DetectionResult{}, event(), "Could we switch to Room beta instead?", testNow)
	require.NotNil(t, cr)
	assert.Equal(t, TargetRoom, cr.Target)
	assert.Equal(t, "Room Beta", cr.Value)
	assert.Equal(t, models.StepRoom, cr.Target.Step())
}

func TestDetectParticipantsChange(t *testing.T) {
	cr := Detect(&models.DetectionResult{}, event(), "We need to change to 80 people", testNow)
	require.NotNil(t, cr)
	assert.Equal(t, TargetParticipants, cr.Target)
	assert.Equal(t, "80", cr.Value)
	assert.Equal(t, models.StepRoom, cr.Target.Step())
}

func TestDetectRequirementsChange(t *testing.T) {
	cr := Detect(&models.DetectionResult{}, event(), "Please change the seating layout", testNow)
	require.NotNil(t, cr)
	assert.Equal(t, TargetRequirements, cr.Target)
}

func TestRevisionWithoutTargetIsNotAChange(t *testing.T) {
	cr := Detect(&models.DetectionResult{}, event(), "Actually, never mind", testNow)
	assert.Nil(t, cr)
}

func TestTargetWithoutRevisionIsNotAChange(t *testing.T) {
	cr := Detect(&models.DetectionResult{}, event(), "40 people will attend", testNow)
	assert.Nil(t, cr)
}

func TestPureQuestionIsNotAChange(t *testing.T) {
	cr := Detect(&models.DetectionResult{IsQuestion: true}, event(), "Is breakfast included?", testNow)
	assert.Nil(t, cr)
}

func TestConfidentAcceptanceSkipsDetection(t *testing.T) {
	res := &models.DetectionResult{IsAcceptance: true, Confidence: 0.9}
	cr := Detect(res, event(), "We'll take it, actually change nothing about the date", testNow)
	assert.Nil(t, cr)
}

func TestLowConfidenceAcceptanceStillDetected(t *testing.T) {
	res := &models.DetectionResult{
		IsAcceptance: true,
		Confidence:   0.4,
		Entities:     models.Entities{Date: "2026-07-02"},
	}
	cr := Detect(res, event(), "ok but move the date to 2026-07-02", testNow)
	require.NotNil(t, cr)
	assert.Equal(t, TargetDate, cr.Target)
}

func TestSiteVisitChangeNeverDetours(t *testing.T) {
	ev := event()
	ev.SiteVisit.Status = models.SiteVisitScheduled
	res := &models.DetectionResult{Entities: models.Entities{SiteVisitDate: "2026-06-01"}}
	cr := Detect(res, ev, "Can we move the site visit to 2026-06-01?", testNow)
	require.NotNil(t, cr)
	assert.Equal(t, TargetSiteVisitDate, cr.Target)
	assert.Equal(t, "2026-06-01", cr.Value)
	assert.Equal(t, 0, cr.Target.Step())
}

func TestDateDuringSiteVisitProposalIsSlotPreference(t *testing.T) {
	ev := event()
	ev.SiteVisit.Status = models.SiteVisitProposed
	res := &models.DetectionResult{Entities: models.Entities{Date: "2026-06-01"}}
	cr := Detect(res, ev, "2026-06-01 would work", testNow)
	assert.Nil(t, cr)
}

func TestBareDateDisambiguationWithActiveSiteVisit(t *testing.T) {
	ev := event()
	ev.SiteVisit.Status = models.SiteVisitScheduled
	res := &models.DetectionResult{Entities: models.Entities{Date: "2026-07-02"}}
	cr := Detect(res, ev, "Actually 2026-07-02 please", testNow)
	require.NotNil(t, cr)
	assert.Equal(t, TargetDate, cr.Target)
	assert.NotEmpty(t, cr.Disambiguation)
}
