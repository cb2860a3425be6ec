package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platformbuilds/alert-engine/internal/alerting"
	"github.com/platformbuilds/alert-engine/internal/api"
	"github.com/platformbuilds/alert-engine/internal/api/websocket"
	"github.com/platformbuilds/alert-engine/internal/channels"
	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/internal/directory"
	"github.com/platformbuilds/alert-engine/internal/search"
	"github.com/platformbuilds/alert-engine/internal/tracing"
	"github.com/platformbuilds/alert-engine/pkg/cache"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

// version is stamped at build time via -ldflags.
var version = "v1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)
	logger.Info("Starting alert engine", "version", version, "environment", cfg.Environment)

	// Distributed tracing (optional)
	if cfg.Monitoring.TracingEnabled {
		tp, err := tracing.NewTracerProvider("alert-engine", version, cfg.Monitoring.OTLPEndpoint)
		if err != nil {
			logger.Warn("Tracing disabled: provider init failed", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Tracer shutdown failed", "error", err)
				}
			}()
		}
	}
	tracing.InitGlobalTracer("alert-engine")

	// Valkey backs the history archive and API rate limiting. The engine
	// starts on the in-memory noop cache; the auto-swap wrapper upgrades
	// to the configured nodes once one answers, so an unreachable Valkey
	// never blocks startup.
	valkeyCache := cache.NewNoopValkeyCache(logger)
	if len(cfg.Cache.Nodes) > 0 {
		ttl := time.Duration(cfg.Cache.TTL) * time.Second
		if len(cfg.Cache.Nodes) == 1 {
			valkeyCache = cache.NewAutoSwapForSingle(cfg.Cache.Nodes[0], cfg.Cache.DB, cfg.Cache.Password, ttl, logger, valkeyCache)
		} else {
			valkeyCache = cache.NewAutoSwapForCluster(cfg.Cache.Nodes, ttl, logger, valkeyCache)
		}
		logger.Info("Valkey cache configured", "nodes", len(cfg.Cache.Nodes))
	}

	// User directory for recipient resolution
	var dir directory.UserDirectory
	switch cfg.Directory.Source {
	case "ldap":
		dir = directory.NewLDAPDirectory(cfg.Directory.LDAP, logger)
		logger.Info("LDAP user directory configured", "url", cfg.Directory.LDAP.URL)
	default:
		dir = directory.NewStaticDirectory(cfg.Directory.Users)
		logger.Info("Static user directory configured", "users", len(cfg.Directory.Users))
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Websocket hub carries the realtime channel and the event stream
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	// Delivery adapters
	notifiers := buildNotifiers(cfg, hub, logger)

	// Routing policy: templates, per-role rules, escalation chain
	var policy *alerting.Policy
	if cfg.Policy.Path != "" {
		spec, err := config.LoadPolicy(cfg.Policy.Path)
		if err != nil {
			logger.Fatal("Failed to load routing policy", "path", cfg.Policy.Path, "error", err)
		}
		policy = alerting.PolicyFromSpec(spec)
		logger.Info("Routing policy loaded", "path", cfg.Policy.Path)
	}

	engine := alerting.NewEngine(cfg.Alerting, policy, dir, notifiers, logger)
	engine.SetChannelPacing(cfg.Channels.PacingRPS, cfg.Channels.PacingBurst)

	// Event observers: Valkey archive, search index, websocket stream
	if cfg.Alerting.History.ArchiveEnabled {
		alerting.NewHistoryArchiver(valkeyCache, logger).Attach(engine.Events())
	}
	var searchIndex *search.AlertIndex
	if cfg.Search.Enabled {
		searchIndex, err = search.NewAlertIndex(cfg.Search, logger)
		if err != nil {
			logger.Fatal("Failed to build alert search index", "error", err)
		}
		searchIndex.Attach(engine.Events())
	}
	engine.Events().SubscribeAll(func(evt alerting.Event) {
		if evt.Outcome != nil {
			hub.BroadcastEvent(evt.Name, map[string]interface{}{
				"alert":   evt.Alert,
				"outcome": evt.Outcome,
			})
			return
		}
		hub.BroadcastEvent(evt.Name, evt.Alert)
	})

	// Hot policy reload on file change
	var watcher *config.PolicyWatcher
	if cfg.Policy.Watch && cfg.Policy.Path != "" {
		watcher = config.NewPolicyWatcher(cfg.Policy.Path, logger)
		watcher.RegisterWatcher(func(spec *config.RoutingPolicy) {
			engine.ReloadPolicy(alerting.PolicyFromSpec(spec))
		})
		go func() {
			// Start blocks on the watch loop until shutdown; a missing
			// policy file just means no hot reload.
			if err := watcher.Start(ctx); err != nil {
				logger.Warn("Policy watcher unavailable", "error", err)
			}
		}()
	}

	if err := engine.Start(ctx); err != nil {
		logger.Fatal("Failed to start alert engine", "error", err)
	}

	// Initialize API server
	apiServer := api.NewServer(cfg, logger, valkeyCache, engine, searchIndex, hub, version)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	// Start server; returns when ctx is cancelled and HTTP has drained
	if err := apiServer.Start(ctx); err != nil {
		logger.Fatal("Server failed to start", "error", err)
	}

	// HTTP is down; flush the engine and observers
	engine.Shutdown()
	if watcher != nil {
		watcher.Stop()
	}
	if searchIndex != nil {
		if err := searchIndex.Close(); err != nil {
			logger.Warn("Search index close failed", "error", err)
		}
	}

	logger.Info("Alert engine shutdown complete")
}

// buildNotifiers assembles the enabled delivery adapters. The realtime
// channel is always on; everything else follows its config flag.
func buildNotifiers(cfg *config.Config, hub *websocket.Hub, log logger.Logger) []channels.Notifier {
	notifiers := []channels.Notifier{
		channels.NewRealtimeNotifier(hub, log),
	}
	if cfg.Channels.Email.Enabled {
		notifiers = append(notifiers, channels.NewEmailNotifier(cfg.Channels.Email, log))
	}
	if cfg.Channels.Chat.Enabled {
		notifiers = append(notifiers, channels.NewChatNotifier(cfg.Channels.Chat, log))
	}
	if cfg.Channels.SMS.Enabled {
		notifiers = append(notifiers, channels.NewSMSNotifier(cfg.Channels.SMS, log))
	}
	if cfg.Channels.Push.Enabled {
		push, err := channels.NewPushNotifier(cfg.Channels.Push, log)
		if err != nil {
			log.Warn("Push channel disabled: broker connect failed", "error", err)
		} else {
			notifiers = append(notifiers, push)
		}
	}
	return notifiers
}
