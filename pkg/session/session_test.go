package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minv/pkg/billing"
	"github.com/otherjamesbrown/minv/pkg/errs"
	"github.com/otherjamesbrown/minv/pkg/parse"
	"github.com/otherjamesbrown/minv/pkg/reconcile"
)

func floatPtr(f float64) *float64 { return &f }

func testResult() *reconcile.Result {
	return &reconcile.Result{
		Customers: []*reconcile.CustomerMeetings{
			{
				Customer: billing.Customer{ID: "cus_alice", Email: "alice@x.com", Name: "Alice Liddell"},
				Meetings: []*billing.Meeting{
					{ID: "aaaa00000001", Title: "Strategy Session", Date: "2025-01-15", Time: "2:00 PM", Duration: 1.0, Status: billing.StatusUnbilled, Selected: true},
					{ID: "aaaa00000002", Title: "Retro", Date: "2025-01-16", Time: "10:00 AM", Duration: 0.5, Status: billing.StatusDrafted, Selected: false},
				},
			},
		},
		Unassociated: []*billing.UnassociatedMeeting{
			{
				Meeting:   billing.Meeting{Title: "Mystery Call", Date: "2025-01-17", Time: "9:00 AM", Duration: 1.0, StartTime: "2025-01-17T09:00:00Z", Status: billing.StatusUnbilled},
				Attendees: []string{"stranger@nowhere.com"},
			},
		},
	}
}

func TestSession_Numbering(t *testing.T) {
	s := New(testResult(), 150, 0)

	entries := s.Entries()
	require.Len(t, entries, 3)
	assert.NotNil(t, entries[0].Meeting)
	assert.NotNil(t, entries[1].Meeting)
	assert.NotNil(t, entries[2].Unassociated)
	assert.Equal(t, 1, entries[0].Index)
	assert.Equal(t, 3, entries[2].Index)
}

func TestToggle_UnbilledFlips(t *testing.T) {
	s := New(testResult(), 150, 0)

	require.NoError(t, s.Toggle(1))
	assert.False(t, s.Entries()[0].Meeting.Selected)
	require.NoError(t, s.Toggle(1))
	assert.True(t, s.Entries()[0].Meeting.Selected)
}

func TestToggle_DraftedRejected(t *testing.T) {
	s := New(testResult(), 150, 0)

	err := s.Toggle(2)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidState(err))
	assert.False(t, s.Entries()[1].Meeting.Selected)
}

func TestToggle_UnassociatedRejected(t *testing.T) {
	s := New(testResult(), 150, 0)

	err := s.Toggle(3)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidState(err))
}

func TestToggle_UnknownIndex(t *testing.T) {
	s := New(testResult(), 150, 0)

	assert.True(t, errs.IsNotFound(s.Toggle(0)))
	assert.True(t, errs.IsNotFound(s.Toggle(99)))
}

func TestSelectAllUnbilled_NeverTouchesBilled(t *testing.T) {
	s := New(testResult(), 150, 0)
	require.NoError(t, s.Toggle(1)) // deselect the unbilled one

	s.SelectAllUnbilled()

	assert.True(t, s.Entries()[0].Meeting.Selected)
	assert.False(t, s.Entries()[1].Meeting.Selected, "drafted meeting must stay unselected")
	assert.False(t, s.Entries()[2].Unassociated.Selected)
}

func TestDeselectAll(t *testing.T) {
	s := New(testResult(), 150, 0)

	s.DeselectAll()

	assert.False(t, s.Entries()[0].Meeting.Selected)
	assert.False(t, s.Entries()[1].Meeting.Selected)
}

func TestEdit_SetsOverridesAndDerivedFlag(t *testing.T) {
	s := New(testResult(), 150, 0)

	require.NoError(t, s.Edit(1, &parse.Clock{Hour: 11, Minute: 30}, floatPtr(2.5)))

	m := s.Entries()[0].Meeting
	assert.True(t, m.Edited())
	assert.Equal(t, "11:30 AM", m.EffectiveTime())
	assert.Equal(t, 2.5, m.EffectiveDuration())
}

func TestEdit_NilKeepsCurrent(t *testing.T) {
	s := New(testResult(), 150, 0)
	require.NoError(t, s.Edit(1, nil, floatPtr(2.0)))

	require.NoError(t, s.Edit(1, nil, nil))

	m := s.Entries()[0].Meeting
	assert.Nil(t, m.EditedStartTime)
	assert.Equal(t, 2.0, *m.EditedDuration)
}

func TestEdit_LegalOnDraftedMeeting(t *testing.T) {
	s := New(testResult(), 150, 0)

	require.NoError(t, s.Edit(2, nil, floatPtr(1.5)))
	// Editing never implies selection.
	assert.False(t, s.Entries()[1].Meeting.Selected)
}

func TestSetRate_IndependentOfEditedFlag(t *testing.T) {
	s := New(testResult(), 150, 0)

	require.NoError(t, s.SetRate(1, 300))

	m := s.Entries()[0].Meeting
	assert.False(t, m.Edited())
	assert.Equal(t, 300.0, m.EffectiveRate(150))
}

func TestAssign_ConvertsAndForceSelects(t *testing.T) {
	s := New(testResult(), 150, 0)
	carol := billing.Customer{ID: "cus_carol", Email: "carol@z.com", Name: "Carol"}

	require.NoError(t, s.Assign(3, carol))

	assert.Empty(t, s.Result().Unassociated)
	entries := s.Entries()
	require.Len(t, entries, 3)

	assigned := entries[2]
	require.NotNil(t, assigned.Meeting)
	assert.Equal(t, "cus_carol", assigned.Customer.ID)
	assert.True(t, assigned.Meeting.Selected)
	assert.True(t, assigned.Meeting.ManuallyAssigned)
	assert.Equal(t, billing.SourceManualAssignment, assigned.Meeting.Source)
	assert.Len(t, assigned.Meeting.ID, 12)

	// Now selectable like any unbilled meeting.
	require.NoError(t, s.Toggle(3))
	assert.False(t, assigned.Meeting.Selected)
}

func TestAssign_AssociatedEntryRejected(t *testing.T) {
	s := New(testResult(), 150, 0)

	err := s.Assign(1, billing.Customer{ID: "cus_x"})
	require.Error(t, err)
	assert.True(t, errs.IsInvalidState(err))
}

func TestSelectedTotals_UsesEffectiveValues(t *testing.T) {
	s := New(testResult(), 150, 0)
	require.NoError(t, s.Edit(1, nil, floatPtr(2.5)))
	require.NoError(t, s.SetRate(1, 300))

	totals := s.SelectedTotals()

	assert.Equal(t, 1, totals.Meetings)
	assert.Equal(t, 2.5, totals.Hours)
	assert.Equal(t, 750.0, totals.Amount)
}

func TestUpdateCustomerRate(t *testing.T) {
	s := New(testResult(), 150, 0)

	require.NoError(t, s.UpdateCustomerRate("cus_alice", 225))
	assert.Equal(t, 225.0, s.Result().Customers[0].Customer.HourlyRate(150))

	assert.True(t, errs.IsNotFound(s.UpdateCustomerRate("cus_nope", 225)))
}
