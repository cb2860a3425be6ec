package directory

import (
	"context"
	"sync"

	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/internal/monitoring"
)

// StaticDirectory serves users seeded from configuration. Without seeds it
// falls back to a built-in sample set so a fresh install routes somewhere.
type StaticDirectory struct {
	mu     sync.RWMutex
	byRole map[string][]*models.User
}

func NewStaticDirectory(seeds []config.UserSeed) *StaticDirectory {
	users := seedsToUsers(seeds)
	if len(users) == 0 {
		users = defaultUsers()
	}

	byRole := make(map[string][]*models.User)
	for _, user := range users {
		for _, role := range user.Roles {
			byRole[role] = append(byRole[role], user)
		}
	}

	return &StaticDirectory{byRole: byRole}
}

func (d *StaticDirectory) GetUsersByRole(ctx context.Context, role string) ([]*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	members := d.byRole[role]
	out := make([]*models.User, 0, len(members))
	for _, user := range members {
		out = append(out, user.Clone())
	}

	result := "success"
	if len(out) == 0 {
		result = "empty"
	}
	monitoring.RecordDirectoryLookup("static", result)
	return out, nil
}

func seedsToUsers(seeds []config.UserSeed) []*models.User {
	users := make([]*models.User, 0, len(seeds))
	for _, seed := range seeds {
		user := &models.User{
			ID:                   seed.ID,
			Name:                 seed.Name,
			Email:                seed.Email,
			Phone:                seed.Phone,
			Roles:                seed.Roles,
			NotificationChannels: seed.Channels,
			DeviceTopic:          seed.DeviceTopic,
		}
		if seed.Enabled != nil || len(seed.Priorities) > 0 {
			prefs := &models.NotificationPreferences{Enabled: true}
			if seed.Enabled != nil {
				prefs.Enabled = *seed.Enabled
			}
			for _, p := range seed.Priorities {
				prefs.Priorities = append(prefs.Priorities, models.Priority(p))
			}
			user.Preferences = prefs
		}
		users = append(users, user)
	}
	return users
}

// defaultUsers mirrors the default role rules: one member per built-in role.
func defaultUsers() []*models.User {
	return []*models.User{
		{
			ID:                   "admin-1",
			Name:                 "Admin On Call",
			Email:                "admin@localhost",
			Phone:                "+10000000001",
			Roles:                []string{"admin"},
			NotificationChannels: []string{"email", "sms", "realtime"},
			DeviceTopic:          "admin-1",
		},
		{
			ID:                   "operator-1",
			Name:                 "Operator On Call",
			Email:                "operator@localhost",
			Roles:                []string{"operator"},
			NotificationChannels: []string{"email", "realtime", "chat"},
			DeviceTopic:          "operator-1",
		},
		{
			ID:                   "developer-1",
			Name:                 "Developer On Call",
			Email:                "developer@localhost",
			Roles:                []string{"developer"},
			NotificationChannels: []string{"realtime", "chat"},
		},
	}
}
