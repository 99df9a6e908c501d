package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nurpe/fieldserv-crm/internal/model"
)

func serviceBidType() *model.BidType {
	return &model.BidType{
		Name: "Сервисная заявка",
		Statuses: []model.Status{
			{ID: 1, Name: "Open", Position: 1},
			{ID: 2, Name: "InProgress", Position: 50},
			{ID: 3, Name: "Closed", Position: 999},
		},
		Transitions: []model.Transition{
			{From: 1, To: 50},
			{From: 50, To: 999},
		},
	}
}

func TestResolveStatus(t *testing.T) {
	bt := serviceBidType()

	status, ok := ResolveStatus(bt, "InProgress")
	require.True(t, ok)
	require.Equal(t, 50, status.Position)

	_, ok = ResolveStatus(bt, "Archived")
	require.False(t, ok)
}

func TestInitialStatus(t *testing.T) {
	bt := serviceBidType()

	initial, err := InitialStatus(bt)
	require.NoError(t, err)
	require.Equal(t, "Open", initial.Name)
}

func TestInitialStatusMissing(t *testing.T) {
	bt := serviceBidType()
	bt.Statuses = bt.Statuses[1:]

	_, err := InitialStatus(bt)
	require.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestIsTransitionAllowed(t *testing.T) {
	bt := serviceBidType()

	require.True(t, IsTransitionAllowed(bt, "Open", "InProgress"))
	require.True(t, IsTransitionAllowed(bt, "InProgress", "Closed"))
	require.False(t, IsTransitionAllowed(bt, "Open", "Closed"))
	require.False(t, IsTransitionAllowed(bt, "Closed", "Open"))
	require.False(t, IsTransitionAllowed(bt, "Open", "Archived"))
}

func TestValidateAccepts(t *testing.T) {
	require.NoError(t, Validate(serviceBidType()))
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.BidType)
	}{
		{"empty status list", func(bt *model.BidType) { bt.Statuses = nil }},
		{"no open status", func(bt *model.BidType) { bt.Statuses[0].Position = 2 }},
		{"two open statuses", func(bt *model.BidType) { bt.Statuses[1].Position = 1 }},
		{"no closed status", func(bt *model.BidType) { bt.Statuses[2].Position = 500 }},
		{"duplicate name", func(bt *model.BidType) { bt.Statuses[1].Name = "Open" }},
		{"duplicate id", func(bt *model.BidType) { bt.Statuses[1].ID = 1 }},
		{"empty name", func(bt *model.BidType) { bt.Statuses[1].Name = "" }},
		{"position out of range", func(bt *model.BidType) { bt.Statuses[1].Position = 1000 }},
		{"transition from unknown position", func(bt *model.BidType) {
			bt.Transitions = append(bt.Transitions, model.Transition{From: 7, To: 50})
		}},
		{"transition to unknown position", func(bt *model.BidType) {
			bt.Transitions = append(bt.Transitions, model.Transition{From: 50, To: 7})
		}},
		{"self-transition", func(bt *model.BidType) {
			bt.Transitions = append(bt.Transitions, model.Transition{From: 50, To: 50})
		}},
		{"transition out of closed", func(bt *model.BidType) {
			bt.Transitions = append(bt.Transitions, model.Transition{From: 999, To: 1})
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bt := serviceBidType()
			tc.mutate(bt)
			require.ErrorIs(t, Validate(bt), ErrInvalidDefinition)
		})
	}
}

func TestAssignStatusIDs(t *testing.T) {
	statuses := AssignStatusIDs([]model.Status{
		{Name: "Open", Position: 1},
		{ID: 4, Name: "InProgress", Position: 50},
		{Name: "Closed", Position: 999},
	})

	require.Equal(t, 4, statuses[1].ID)
	require.Equal(t, 5, statuses[0].ID)
	require.Equal(t, 6, statuses[2].ID)
}
