package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bee-social/internal/models"
)

func strPtr(s string) *string { return &s }

func TestPlanChat(t *testing.T) {
	plan, err := planChat("a", nil, []string{"b", " b ", "a", ""})
	require.Nil(t, err)
	assert.False(t, plan.group)
	assert.Equal(t, []string{"b"}, plan.others)
	assert.Equal(t, []string{"a", "b"}, plan.participants)

	plan, err = planChat("a", strPtr("  hive "), []string{"b", "c"})
	require.Nil(t, err)
	assert.True(t, plan.group)
	assert.Equal(t, "hive", plan.name)
	assert.Equal(t, []string{"a", "b", "c"}, plan.participants)

	// A name on a two-person chat is ignored.
	plan, err = planChat("a", strPtr("ignored"), []string{"b"})
	require.Nil(t, err)
	assert.False(t, plan.group)
	assert.Empty(t, plan.name)
}

func TestPlanChatRejects(t *testing.T) {
	_, err := planChat("a", nil, nil)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status)

	_, err = planChat("a", nil, []string{"a"})
	require.NotNil(t, err)

	_, err = planChat("a", strPtr("   "), []string{"b", "c"})
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status)
}

func TestSortChatListTieBreaks(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	same := base.Add(time.Hour)
	rows := []models.ChatListRow{
		{ChatID: 1, CreatedAt: base},
		{ChatID: 2, CreatedAt: base, LastCreatedAt: &same},
		{ChatID: 3, CreatedAt: base, LastCreatedAt: &same},
		{ChatID: 4, CreatedAt: base.Add(time.Minute)},
	}
	sortChatList(rows)

	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ChatID)
	}
	assert.Equal(t, []int{3, 2, 4, 1}, ids)
}

func TestSummaryFromRowWithoutMessage(t *testing.T) {
	s := summaryFromRow(models.ChatListRow{ChatID: 5, LastReadByUser: true, ParticipantIDs: []string{"x"}}, nil)
	assert.Nil(t, s.LastMessage)
	assert.True(t, s.IsRead)
	assert.Equal(t, []models.Profile{{ID: "x"}}, s.Participants)
}
