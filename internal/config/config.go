package config

type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	Port        int    `mapstructure:"port" yaml:"port"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	Alerting   AlertingConfig   `mapstructure:"alerting" yaml:"alerting"`
	Policy     PolicyConfig     `mapstructure:"policy" yaml:"policy"`
	Channels   ChannelsConfig   `mapstructure:"channels" yaml:"channels"`
	Directory  DirectoryConfig  `mapstructure:"directory" yaml:"directory"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	CORS       CORSConfig       `mapstructure:"cors" yaml:"cors"`
	APILimit   APILimitConfig   `mapstructure:"api_rate_limit" yaml:"api_rate_limit"`
	WebSocket  WebSocketConfig  `mapstructure:"websocket" yaml:"websocket"`
	Monitoring MonitoringConfig `mapstructure:"monitoring" yaml:"monitoring"`
	Search     SearchConfig     `mapstructure:"search" yaml:"search"`
}

// AlertingConfig holds the engine knobs: queue cadence, retry policy,
// alert-level rate limiting, escalation and history retention.
type AlertingConfig struct {
	DefaultPriority string `mapstructure:"default_priority" yaml:"default_priority"`
	QueueInterval   int    `mapstructure:"queue_interval" yaml:"queue_interval"`     // milliseconds
	MaxAttempts     int    `mapstructure:"max_attempts" yaml:"max_attempts"`         // drop after N processing failures
	RetryBackoff    int    `mapstructure:"retry_backoff" yaml:"retry_backoff"`       // milliseconds per attempt
	DispatchTimeout int    `mapstructure:"dispatch_timeout" yaml:"dispatch_timeout"` // milliseconds per channel send

	RateLimit  RateLimitConfig  `mapstructure:"rate_limit" yaml:"rate_limit"`
	Escalation EscalationConfig `mapstructure:"escalation" yaml:"escalation"`
	History    HistoryConfig    `mapstructure:"history" yaml:"history"`
}

// RateLimitConfig bounds alert creation per (type, priority) pair over a
// sliding window.
type RateLimitConfig struct {
	Enabled   bool `mapstructure:"enabled" yaml:"enabled"`
	Window    int  `mapstructure:"window" yaml:"window"` // milliseconds
	MaxAlerts int  `mapstructure:"max_alerts" yaml:"max_alerts"`
}

type EscalationConfig struct {
	Enabled      bool `mapstructure:"enabled" yaml:"enabled"`
	DefaultDelay int  `mapstructure:"default_delay" yaml:"default_delay"` // milliseconds, used when the chain has no step for a level
}

type HistoryConfig struct {
	MaxEntries      int    `mapstructure:"max_entries" yaml:"max_entries"`
	RetentionHours  int    `mapstructure:"retention_hours" yaml:"retention_hours"`
	MaintenanceSpec string `mapstructure:"maintenance_spec" yaml:"maintenance_spec"` // cron spec for sweeps
	ArchiveEnabled  bool   `mapstructure:"archive_enabled" yaml:"archive_enabled"`   // mirror history into valkey
}

// PolicyConfig points at the routing policy file (templates, per-role rules,
// escalation chain). The file is optional; built-in defaults apply without it.
type PolicyConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Watch bool   `mapstructure:"watch" yaml:"watch"` // hot-reload on file change
}

// ChannelsConfig configures the delivery adapters.
type ChannelsConfig struct {
	Email EmailConfig `mapstructure:"email" yaml:"email"`
	Chat  ChatConfig  `mapstructure:"chat" yaml:"chat"`
	SMS   SMSConfig   `mapstructure:"sms" yaml:"sms"`
	Push  PushConfig  `mapstructure:"push" yaml:"push"`

	// PacingRPS caps outbound sends per channel; 0 disables pacing.
	PacingRPS   float64 `mapstructure:"pacing_rps" yaml:"pacing_rps"`
	PacingBurst int     `mapstructure:"pacing_burst" yaml:"pacing_burst"`
}

type EmailConfig struct {
	SMTPHost    string `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort    int    `mapstructure:"smtp_port" yaml:"smtp_port"`
	Username    string `mapstructure:"username" yaml:"username"`
	Password    string `mapstructure:"password" yaml:"password"`
	FromAddress string `mapstructure:"from_address" yaml:"from_address"`
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
}

// ChatConfig targets a Slack-compatible incoming webhook.
type ChatConfig struct {
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
	Channel    string `mapstructure:"channel" yaml:"channel"`
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
}

// SMSConfig targets an HTTP SMS gateway (one POST per recipient).
type SMSConfig struct {
	GatewayURL string `mapstructure:"gateway_url" yaml:"gateway_url"`
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`
	From       string `mapstructure:"from" yaml:"from"`
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
}

// PushConfig targets an MQTT broker; each user gets a device topic under
// TopicPrefix.
type PushConfig struct {
	BrokerURL   string `mapstructure:"broker_url" yaml:"broker_url"`
	ClientID    string `mapstructure:"client_id" yaml:"client_id"`
	Username    string `mapstructure:"username" yaml:"username"`
	Password    string `mapstructure:"password" yaml:"password"`
	TopicPrefix string `mapstructure:"topic_prefix" yaml:"topic_prefix"`
	QoS         int    `mapstructure:"qos" yaml:"qos"`
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DirectoryConfig selects the user directory backing recipient resolution.
type DirectoryConfig struct {
	Source string     `mapstructure:"source" yaml:"source"` // static | ldap
	LDAP   LDAPConfig `mapstructure:"ldap" yaml:"ldap"`
	Users  []UserSeed `mapstructure:"users" yaml:"users"` // static source; empty uses built-in sample set
}

type LDAPConfig struct {
	URL          string `mapstructure:"url" yaml:"url"`
	BindDN       string `mapstructure:"bind_dn" yaml:"bind_dn"`
	BindPassword string `mapstructure:"bind_password" yaml:"bind_password"`
	BaseDN       string `mapstructure:"base_dn" yaml:"base_dn"`
	GroupBaseDN  string `mapstructure:"group_base_dn" yaml:"group_base_dn"`
	Timeout      int    `mapstructure:"timeout" yaml:"timeout"` // milliseconds
}

// UserSeed declares a static directory user in config.
type UserSeed struct {
	ID          string   `mapstructure:"id" yaml:"id"`
	Name        string   `mapstructure:"name" yaml:"name"`
	Email       string   `mapstructure:"email" yaml:"email"`
	Phone       string   `mapstructure:"phone" yaml:"phone"`
	Roles       []string `mapstructure:"roles" yaml:"roles"`
	Channels    []string `mapstructure:"channels" yaml:"channels"`
	DeviceTopic string   `mapstructure:"device_topic" yaml:"device_topic"`
	Enabled     *bool    `mapstructure:"enabled" yaml:"enabled"`       // nil means no preference filtering
	Priorities  []string `mapstructure:"priorities" yaml:"priorities"` // restrict delivered priorities
}

// CacheConfig handles Valkey configuration for the history archive and the
// HTTP rate limiter counters.
type CacheConfig struct {
	Nodes    []string `mapstructure:"nodes" yaml:"nodes"`
	TTL      int      `mapstructure:"ttl" yaml:"ttl"` // seconds
	Password string   `mapstructure:"password" yaml:"password"`
	DB       int      `mapstructure:"db" yaml:"db"`
}

// CORSConfig handles Cross-Origin Resource Sharing
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers" yaml:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

// APILimitConfig bounds inbound HTTP requests per client IP.
type APILimitConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// WebSocketConfig handles real-time streaming configuration
type WebSocketConfig struct {
	Enabled         bool `mapstructure:"enabled" yaml:"enabled"`
	MaxConnections  int  `mapstructure:"max_connections" yaml:"max_connections"`
	ReadBufferSize  int  `mapstructure:"read_buffer_size" yaml:"read_buffer_size"`
	WriteBufferSize int  `mapstructure:"write_buffer_size" yaml:"write_buffer_size"`
	PingInterval    int  `mapstructure:"ping_interval" yaml:"ping_interval"` // seconds
	MaxMessageSize  int  `mapstructure:"max_message_size" yaml:"max_message_size"`
}

// MonitoringConfig handles self-monitoring configuration
type MonitoringConfig struct {
	Enabled           bool   `mapstructure:"enabled" yaml:"enabled"`
	MetricsPath       string `mapstructure:"metrics_path" yaml:"metrics_path"`
	PrometheusEnabled bool   `mapstructure:"prometheus_enabled" yaml:"prometheus_enabled"`
	TracingEnabled    bool   `mapstructure:"tracing_enabled" yaml:"tracing_enabled"`
	OTLPEndpoint      string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
}

// SearchConfig controls the in-memory history search index.
type SearchConfig struct {
	Enabled    bool `mapstructure:"enabled" yaml:"enabled"`
	MaxResults int  `mapstructure:"max_results" yaml:"max_results"`
}
