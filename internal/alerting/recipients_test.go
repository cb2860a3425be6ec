package alerting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/alert-engine/internal/models"
)

func recipientIDs(users []*models.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestResolveRecipientsMatchesRolesByPriority(t *testing.T) {
	e := newTestEngine(t, testConfig(), nil, nil)

	// Medium is covered by operator and developer, not admin.
	users, err := e.resolveRecipients(context.Background(), testAlert("a1", models.PriorityMedium), e.currentPolicy())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"operator-1", "developer-1"}, recipientIDs(users))

	// Critical is covered by admin and operator.
	users, err = e.resolveRecipients(context.Background(), testAlert("a2", models.PriorityCritical), e.currentPolicy())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"admin-1", "operator-1"}, recipientIDs(users))
}

func TestResolveRecipientsQuietHours(t *testing.T) {
	e := newTestEngine(t, testConfig(), nil, nil)

	// 23:00 is inside the default 22-8 quiet window of operator and
	// developer. Medium alerts route to nobody.
	installClock(e, time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC))
	users, err := e.resolveRecipients(context.Background(), testAlert("a1", models.PriorityMedium), e.currentPolicy())
	require.NoError(t, err)
	assert.Empty(t, users)

	// 02:00, wrapped past midnight, still quiet.
	installClock(e, time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC))
	users, err = e.resolveRecipients(context.Background(), testAlert("a2", models.PriorityMedium), e.currentPolicy())
	require.NoError(t, err)
	assert.Empty(t, users)

	// Critical alerts cut through quiet hours.
	users, err = e.resolveRecipients(context.Background(), testAlert("a3", models.PriorityCritical), e.currentPolicy())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"admin-1", "operator-1"}, recipientIDs(users))

	// 10:00 is outside the window.
	installClock(e, time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC))
	users, err = e.resolveRecipients(context.Background(), testAlert("a4", models.PriorityMedium), e.currentPolicy())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"operator-1", "developer-1"}, recipientIDs(users))
}

func TestResolveRecipientsDeduplicatesUsers(t *testing.T) {
	shared := &models.User{ID: "oncall-1", Name: "Sam", Roles: []string{"operator", "developer"}}
	dir := &fakeDirectory{users: map[string][]*models.User{
		"operator":  {shared},
		"developer": {shared},
	}}
	e := newTestEngine(t, testConfig(), nil, dir)

	users, err := e.resolveRecipients(context.Background(), testAlert("a1", models.PriorityMedium), e.currentPolicy())
	require.NoError(t, err)
	assert.Equal(t, []string{"oncall-1"}, recipientIDs(users))
}

func TestResolveRecipientsHonorsUserPreferences(t *testing.T) {
	dir := &fakeDirectory{users: map[string][]*models.User{
		"operator": {
			{ID: "wants-all"},
			{ID: "critical-only", Preferences: &models.NotificationPreferences{
				Enabled:    true,
				Priorities: []models.Priority{models.PriorityCritical},
			}},
			{ID: "opted-out", Preferences: &models.NotificationPreferences{Enabled: false}},
		},
	}}
	e := newTestEngine(t, testConfig(), nil, dir)

	users, err := e.resolveRecipients(context.Background(), testAlert("a1", models.PriorityMedium), e.currentPolicy())
	require.NoError(t, err)
	assert.Equal(t, []string{"wants-all"}, recipientIDs(users))

	users, err = e.resolveRecipients(context.Background(), testAlert("a2", models.PriorityCritical), e.currentPolicy())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"wants-all", "critical-only"}, recipientIDs(users))
}

func TestResolveRecipientsPartialDirectoryFailure(t *testing.T) {
	dir := defaultTestDirectory()
	dir.errRoles = map[string]bool{"admin": true}
	e := newTestEngine(t, testConfig(), nil, dir)

	// One failing role degrades to a warning; the others still resolve.
	users, err := e.resolveRecipients(context.Background(), testAlert("a1", models.PriorityHigh), e.currentPolicy())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"operator-1", "developer-1"}, recipientIDs(users))
}

func TestResolveRecipientsAllLookupsFailed(t *testing.T) {
	dir := defaultTestDirectory()
	dir.err = assert.AnError
	e := newTestEngine(t, testConfig(), nil, dir)

	_, err := e.resolveRecipients(context.Background(), testAlert("a1", models.PriorityHigh), e.currentPolicy())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory unavailable")
}
