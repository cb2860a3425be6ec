package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from various sources with priority order:
// 1. Environment variables
// 2. Configuration file (config.yaml)
// 3. Default values
func Load() (*Config, error) {
	// Initialize Viper
	v := viper.New()

	// Set configuration file details
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/alert-engine/")
	v.AddConfigPath("./configs/")
	v.AddConfigPath(".")

	// Enable environment variable support
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("ALERT_ENGINE")

	// Set default values
	setDefaults(v)

	// Read configuration file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - continue with env vars and defaults
	}

	// Override with environment variables
	overrideWithEnvVars(v)

	// Unmarshal to config struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets reasonable default values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("environment", "development")
	v.SetDefault("port", 9093)
	v.SetDefault("log_level", "info")

	// Engine defaults
	v.SetDefault("alerting.default_priority", "medium")
	v.SetDefault("alerting.queue_interval", 1000)     // 1s drain tick
	v.SetDefault("alerting.max_attempts", 3)
	v.SetDefault("alerting.retry_backoff", 60000)     // per attempt
	v.SetDefault("alerting.dispatch_timeout", 10000)  // per channel send

	v.SetDefault("alerting.rate_limit.enabled", true)
	v.SetDefault("alerting.rate_limit.window", 300000) // 5 minutes
	v.SetDefault("alerting.rate_limit.max_alerts", 10)

	v.SetDefault("alerting.escalation.enabled", true)
	v.SetDefault("alerting.escalation.default_delay", 900000) // 15 minutes

	v.SetDefault("alerting.history.max_entries", 10000)
	v.SetDefault("alerting.history.retention_hours", 168) // 7 days
	v.SetDefault("alerting.history.maintenance_spec", "@every 1h")
	v.SetDefault("alerting.history.archive_enabled", true)

	// Routing policy defaults
	v.SetDefault("policy.path", "/etc/alert-engine/alert-rules.yaml")
	v.SetDefault("policy.watch", true)

	// Channel defaults
	v.SetDefault("channels.email.enabled", false)
	v.SetDefault("channels.email.smtp_port", 587)
	v.SetDefault("channels.chat.enabled", false)
	v.SetDefault("channels.sms.enabled", false)
	v.SetDefault("channels.push.enabled", false)
	v.SetDefault("channels.push.topic_prefix", "alert-engine/push")
	v.SetDefault("channels.push.qos", 1)
	v.SetDefault("channels.pacing_rps", 20)
	v.SetDefault("channels.pacing_burst", 40)

	// Directory defaults
	v.SetDefault("directory.source", "static")
	v.SetDefault("directory.ldap.timeout", 10000)

	// Cache defaults (Valkey)
	v.SetDefault("cache.nodes", []string{"localhost:6379"})
	v.SetDefault("cache.ttl", 604800) // archive entries live 7 days
	v.SetDefault("cache.db", 0)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization"})
	v.SetDefault("cors.exposed_headers", []string{"X-Rate-Limit-Remaining"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 3600)

	// API rate limit defaults
	v.SetDefault("api_rate_limit.enabled", true)
	v.SetDefault("api_rate_limit.requests_per_minute", 600)

	// WebSocket defaults
	v.SetDefault("websocket.enabled", true)
	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.ping_interval", 30)
	v.SetDefault("websocket.max_message_size", 1048576) // 1MB

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.prometheus_enabled", true)
	v.SetDefault("monitoring.tracing_enabled", false)
	v.SetDefault("monitoring.otlp_endpoint", "localhost:4317")

	// Search defaults
	v.SetDefault("search.enabled", true)
	v.SetDefault("search.max_results", 50)
}

// overrideWithEnvVars explicitly handles environment variable overrides
func overrideWithEnvVars(v *viper.Viper) {
	// Server configuration
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("port", p)
		}
	}

	if env := os.Getenv("ENVIRONMENT"); env != "" {
		v.Set("environment", env)
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		v.Set("log_level", logLevel)
	}

	// Routing policy file
	if policyPath := os.Getenv("ALERT_RULES_PATH"); policyPath != "" {
		v.Set("policy.path", policyPath)
	}

	// Valkey cache nodes
	if cacheNodes := os.Getenv("VALKEY_CACHE_NODES"); cacheNodes != "" {
		nodes := strings.Split(cacheNodes, ",")
		for i, node := range nodes {
			nodes[i] = strings.TrimSpace(node)
		}
		v.Set("cache.nodes", nodes)
	}

	if cacheTTL := os.Getenv("CACHE_TTL"); cacheTTL != "" {
		if ttl, err := strconv.Atoi(cacheTTL); err == nil {
			v.Set("cache.ttl", ttl)
		}
	}

	// Channel integrations
	if chatWebhook := os.Getenv("CHAT_WEBHOOK_URL"); chatWebhook != "" {
		v.Set("channels.chat.webhook_url", chatWebhook)
		v.Set("channels.chat.enabled", true)
	}

	if smtpHost := os.Getenv("SMTP_HOST"); smtpHost != "" {
		v.Set("channels.email.smtp_host", smtpHost)
		v.Set("channels.email.enabled", true)
	}

	if smsGateway := os.Getenv("SMS_GATEWAY_URL"); smsGateway != "" {
		v.Set("channels.sms.gateway_url", smsGateway)
		v.Set("channels.sms.enabled", true)
	}

	if mqttBroker := os.Getenv("MQTT_BROKER_URL"); mqttBroker != "" {
		v.Set("channels.push.broker_url", mqttBroker)
		v.Set("channels.push.enabled", true)
	}

	// User directory
	if ldapURL := os.Getenv("LDAP_URL"); ldapURL != "" {
		v.Set("directory.ldap.url", ldapURL)
		v.Set("directory.source", "ldap")
	}

	if ldapBaseDN := os.Getenv("LDAP_BASE_DN"); ldapBaseDN != "" {
		v.Set("directory.ldap.base_dn", ldapBaseDN)
	}
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	// Validate port range
	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", config.Port)
	}

	// Validate log level
	validLogLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLogLevels, config.LogLevel) {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}

	// Validate environment
	validEnvironments := []string{"development", "staging", "production", "test"}
	if !contains(validEnvironments, config.Environment) {
		return fmt.Errorf("invalid environment: %s", config.Environment)
	}

	// Validate engine knobs
	validPriorities := []string{"critical", "high", "medium", "low", "info"}
	if !contains(validPriorities, config.Alerting.DefaultPriority) {
		return fmt.Errorf("invalid default priority: %s", config.Alerting.DefaultPriority)
	}

	if config.Alerting.QueueInterval < 1 {
		return fmt.Errorf("queue interval must be at least 1ms")
	}

	if config.Alerting.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1")
	}

	if config.Alerting.RateLimit.Enabled && config.Alerting.RateLimit.Window < 1 {
		return fmt.Errorf("rate limit window must be at least 1ms")
	}

	if config.Alerting.RateLimit.Enabled && config.Alerting.RateLimit.MaxAlerts < 1 {
		return fmt.Errorf("rate limit max alerts must be at least 1")
	}

	if config.Alerting.History.MaxEntries < 1 {
		return fmt.Errorf("history max entries must be at least 1")
	}

	// Validate directory source
	if config.Directory.Source != "static" && config.Directory.Source != "ldap" {
		return fmt.Errorf("invalid directory source: %s", config.Directory.Source)
	}

	if config.Directory.Source == "ldap" && config.Directory.LDAP.URL == "" {
		return fmt.Errorf("LDAP URL is required when directory source is ldap")
	}

	// Validate cache TTL
	if config.Cache.TTL < 1 {
		return fmt.Errorf("cache TTL must be at least 1 second")
	}

	if len(config.Cache.Nodes) == 0 {
		return fmt.Errorf("at least one Valkey cache node is required")
	}

	// Validate push QoS
	if config.Channels.Push.QoS < 0 || config.Channels.Push.QoS > 2 {
		return fmt.Errorf("push QoS must be 0, 1 or 2")
	}

	return nil
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
