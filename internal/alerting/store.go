package alerting

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platformbuilds/alert-engine/internal/models"
)

// Store holds active alerts and the append-only lifecycle history behind a
// single mutex. All returned alerts are deep copies; callers never see the
// store's own instances.
type Store struct {
	mu         sync.RWMutex
	active     map[string]*models.Alert
	history    []models.HistoryEntry
	maxHistory int

	now func() time.Time
}

// NewStore creates an empty store keeping at most maxHistory history
// entries; older entries are dropped oldest-first.
func NewStore(maxHistory int) *Store {
	if maxHistory < 1 {
		maxHistory = 1
	}
	return &Store{
		active:     make(map[string]*models.Alert),
		maxHistory: maxHistory,
		now:        time.Now,
	}
}

// Insert registers a new active alert and records its creation.
func (s *Store) Insert(alert *models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active[alert.ID] = alert
	s.appendHistoryLocked(models.ActionCreated, alert, alert.CreatedAt)
}

// Get returns a copy of the active alert with the given id.
func (s *Store) Get(id string) (*models.Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, ok := s.active[id]
	if !ok {
		return nil, false
	}
	return alert.Clone(), true
}

// Acknowledge marks an active alert as acknowledged. The alert stays
// active; acknowledging only stops escalation.
func (s *Store) Acknowledge(id, user, comment string) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.active[id]
	if !ok {
		return nil, ErrAlertNotFound
	}

	now := s.now()
	alert.Acknowledged = true
	alert.AcknowledgedBy = user
	alert.AcknowledgedAt = &now
	alert.AckComment = comment
	s.appendHistoryLocked(models.ActionAcknowledged, alert, now)

	return alert.Clone(), nil
}

// Resolve marks an alert resolved and removes it from the active set.
// Resolution is terminal; the alert survives only in history.
func (s *Store) Resolve(id, user, resolution string) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.active[id]
	if !ok {
		return nil, ErrAlertNotFound
	}

	now := s.now()
	alert.Resolved = true
	alert.ResolvedBy = user
	alert.ResolvedAt = &now
	alert.Resolution = resolution
	delete(s.active, id)
	s.appendHistoryLocked(models.ActionResolved, alert, now)

	return alert.Clone(), nil
}

// Escalate bumps the alert's escalation level if it is still active,
// unacknowledged and unresolved. The check and the increment happen under
// one lock so a concurrent acknowledge cannot race past it.
func (s *Store) Escalate(id string) (*models.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.active[id]
	if !ok || alert.Acknowledged || alert.Resolved {
		return nil, false
	}

	alert.EscalationLevel++
	alert.Escalated = true
	s.appendHistoryLocked(models.ActionEscalated, alert, s.now())

	return alert.Clone(), true
}

// Mutate applies fn to the active alert under the store lock and returns
// the updated copy. Used for delivery bookkeeping (attempts, status).
func (s *Store) Mutate(id string, fn func(*models.Alert)) (*models.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.active[id]
	if !ok {
		return nil, false
	}
	fn(alert)
	return alert.Clone(), true
}

// ActiveAlerts returns copies of all active alerts in unspecified order.
func (s *Store) ActiveAlerts() []*models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alerts := make([]*models.Alert, 0, len(s.active))
	for _, alert := range s.active {
		alerts = append(alerts, alert.Clone())
	}
	return alerts
}

// ActiveCount returns the number of active alerts.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.active)
}

// ActiveByPriority counts active alerts per priority level.
func (s *Store) ActiveByPriority() map[models.Priority]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.Priority]int)
	for _, alert := range s.active {
		counts[alert.Priority]++
	}
	return counts
}

// History returns up to limit entries, newest first. A limit <= 0 returns
// everything.
func (s *Store) History(limit int) []models.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.history)
	if limit > 0 && limit < n {
		n = limit
	}

	entries := make([]models.HistoryEntry, 0, n)
	for i := len(s.history) - 1; i >= 0 && len(entries) < n; i-- {
		entry := s.history[i]
		entry.Alert = *entry.Alert.Clone()
		entries = append(entries, entry)
	}
	return entries
}

// VisitHistory calls fn for every history entry, oldest first. Entries are
// the store's own and must not be retained or mutated by fn.
func (s *Store) VisitHistory(fn func(*models.HistoryEntry)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.history {
		fn(&s.history[i])
	}
}

// PruneHistory drops history entries older than the cutoff and returns how
// many were removed.
func (s *Store) PruneHistory(olderThan time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := 0
	for idx < len(s.history) && s.history[idx].Time.Before(olderThan) {
		idx++
	}
	if idx == 0 {
		return 0
	}
	s.history = append(s.history[:0], s.history[idx:]...)
	return idx
}

// appendHistoryLocked records a lifecycle transition; the caller holds the
// write lock. The entry carries a snapshot of the alert at event time.
func (s *Store) appendHistoryLocked(action string, alert *models.Alert, at time.Time) {
	entry := models.HistoryEntry{
		ID:     uuid.New().String(),
		Action: action,
		Alert:  *alert.Clone(),
		Time:   at,
	}
	if len(s.history) == s.maxHistory {
		copy(s.history, s.history[1:])
		s.history[len(s.history)-1] = entry
		return
	}
	s.history = append(s.history, entry)
}
