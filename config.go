package gawin

// Config holds the configuration for the Gawin gateway.
type Config struct {
	// Providers is the fallback chain: adapter names in strict priority
	// order. The first entry is tried first on every request.
	Providers []string `json:"providers" yaml:"providers"`

	// DegradeMode selects what happens when every adapter fails:
	// "graceful" answers HTTP 200 with a canned terminal response,
	// "unavailable" surfaces HTTP 503 with the aggregated reasons.
	DegradeMode DegradeMode `json:"degrade_mode,omitempty" yaml:"degrade_mode,omitempty"`

	// Aliases maps requested model names onto concrete model IDs before
	// routing, e.g. "fast" -> "llama-3.1-8b-instant".
	Aliases map[string]string `json:"aliases,omitempty" yaml:"aliases,omitempty"`

	// ContentPolicy configures the deny-list applied to the last user
	// message before routing.
	ContentPolicy ContentPolicyConfig `json:"content_policy,omitempty" yaml:"content_policy,omitempty"`

	// Plugins configuration (optional).
	Plugins []PluginConfig `json:"plugins,omitempty" yaml:"plugins,omitempty"`

	// History configures conversation persistence.
	History HistoryConfig `json:"history,omitempty" yaml:"history,omitempty"`

	// Sessions configures the interactive session pool.
	Sessions SessionConfig `json:"sessions,omitempty" yaml:"sessions,omitempty"`
}

// DegradeMode selects the total-failure policy.
type DegradeMode string

// DegradeMode constants. Graceful is the default: chat callers always get an
// answer, never a hard 5xx.
const (
	DegradeGraceful    DegradeMode = "graceful"
	DegradeUnavailable DegradeMode = "unavailable"
)

// ContentPolicyConfig holds the deny-list for inbound user content.
type ContentPolicyConfig struct {
	// BlockedTerms are matched as substrings of the last user message.
	BlockedTerms []string `json:"blocked_terms,omitempty" yaml:"blocked_terms,omitempty"`

	// CaseSensitive disables the default case-insensitive matching.
	CaseSensitive bool `json:"case_sensitive,omitempty" yaml:"case_sensitive,omitempty"`
}

// PluginConfig holds plugin configuration.
type PluginConfig struct {
	Name    string                 `json:"name" yaml:"name"`
	Stage   string                 `json:"stage" yaml:"stage"`
	Enabled bool                   `json:"enabled" yaml:"enabled"`
	Config  map[string]interface{} `json:"config" yaml:"config"`
}

// HistoryConfig configures the conversation store.
type HistoryConfig struct {
	// Enabled turns persistence on. Off by default.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Driver is "sqlite" (default) or "postgres".
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`
	// DSN is the database path (sqlite) or connection string (postgres).
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// SessionConfig configures the session pool.
type SessionConfig struct {
	// TTLSeconds is the idle threshold before a session is evicted.
	// Defaults to 1800 (30 minutes).
	TTLSeconds int `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
	// SweepSeconds is the sweeper interval. Defaults to 60.
	SweepSeconds int `json:"sweep_seconds,omitempty" yaml:"sweep_seconds,omitempty"`
}
