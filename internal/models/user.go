package models

// User is a notification recipient as resolved from the directory.
type User struct {
	ID                   string                   `json:"id"`
	Name                 string                   `json:"name,omitempty"`
	Email                string                   `json:"email,omitempty"`
	Phone                string                   `json:"phone,omitempty"`
	Roles                []string                 `json:"roles,omitempty"`
	NotificationChannels []string                 `json:"notification_channels,omitempty"`
	DeviceTopic          string                   `json:"device_topic,omitempty"` // push routing key
	Preferences          *NotificationPreferences `json:"preferences,omitempty"`  // nil means no restrictions
}

// NotificationPreferences restricts what a user wants delivered. A nil
// Preferences on the user means everything goes through; an empty
// Priorities list means all priorities.
type NotificationPreferences struct {
	Enabled    bool       `json:"enabled"`
	Priorities []Priority `json:"priorities,omitempty"`
}

// Wants reports whether the user accepts notifications at the given
// priority. Users without explicit preferences accept everything.
func (u *User) Wants(p Priority) bool {
	if u.Preferences == nil {
		return true
	}
	if !u.Preferences.Enabled {
		return false
	}
	if len(u.Preferences.Priorities) == 0 {
		return true
	}
	for _, allowed := range u.Preferences.Priorities {
		if allowed == p {
			return true
		}
	}
	return false
}

// Clone returns a copy safe to mutate.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	dup := *u
	if u.Roles != nil {
		dup.Roles = append([]string(nil), u.Roles...)
	}
	if u.NotificationChannels != nil {
		dup.NotificationChannels = append([]string(nil), u.NotificationChannels...)
	}
	if u.Preferences != nil {
		p := *u.Preferences
		if u.Preferences.Priorities != nil {
			p.Priorities = append([]Priority(nil), u.Preferences.Priorities...)
		}
		dup.Preferences = &p
	}
	return &dup
}
