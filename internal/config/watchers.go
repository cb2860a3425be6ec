package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/platformbuilds/alert-engine/pkg/logger"
)

// PolicyWatcher watches the routing policy file and pushes reloaded
// policies to registered callbacks. A reload that fails to parse keeps
// the previous policy in effect.
type PolicyWatcher struct {
	policy     *RoutingPolicy
	policyPath string
	logger     logger.Logger
	mu         sync.RWMutex
	watchers   []func(*RoutingPolicy)
	stopCh     chan struct{}
	stopOnce   sync.Once
}

func NewPolicyWatcher(policyPath string, logger logger.Logger) *PolicyWatcher {
	return &PolicyWatcher{
		policyPath: policyPath,
		logger:     logger,
		watchers:   make([]func(*RoutingPolicy), 0),
		stopCh:     make(chan struct{}),
	}
}

// Start begins watching for policy file changes. It blocks until the
// context is cancelled or Stop is called.
func (w *PolicyWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.policyPath); err != nil {
		return fmt.Errorf("failed to watch policy file: %w", err)
	}

	w.logger.Info("Routing policy watcher started", "path", w.policyPath)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Editors often replace rather than write in place.
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			w.logger.Info("Routing policy changed, reloading...", "file", event.Name)

			if err := w.reloadPolicy(); err != nil {
				w.logger.Error("Failed to reload routing policy, keeping previous", "error", err)
				continue
			}

			w.notifyWatchers()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Routing policy watcher error", "error", err)

		case <-ctx.Done():
			w.logger.Info("Routing policy watcher stopping")
			return nil

		case <-w.stopCh:
			w.logger.Info("Routing policy watcher stopped")
			return nil
		}
	}
}

// RegisterWatcher adds a callback invoked with each successfully reloaded
// policy.
func (w *PolicyWatcher) RegisterWatcher(callback func(*RoutingPolicy)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watchers = append(w.watchers, callback)
}

// GetPolicy returns the most recently loaded policy (thread-safe); nil
// until the first successful reload.
func (w *PolicyWatcher) GetPolicy() *RoutingPolicy {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.policy
}

// Stop stops the watcher. Safe to call more than once.
func (w *PolicyWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *PolicyWatcher) reloadPolicy() error {
	policy, err := LoadPolicy(w.policyPath)
	if err != nil {
		return err
	}
	if policy == nil {
		return fmt.Errorf("policy file %s disappeared", w.policyPath)
	}

	w.mu.Lock()
	w.policy = policy
	w.mu.Unlock()

	w.logger.Info("Routing policy reloaded successfully")
	return nil
}

func (w *PolicyWatcher) notifyWatchers() {
	w.mu.RLock()
	policy := w.policy
	watchers := make([]func(*RoutingPolicy), len(w.watchers))
	copy(watchers, w.watchers)
	w.mu.RUnlock()

	for _, callback := range watchers {
		go func(cb func(*RoutingPolicy)) {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("Routing policy watcher callback panic", "panic", r)
				}
			}()
			cb(policy)
		}(callback)
	}
}
