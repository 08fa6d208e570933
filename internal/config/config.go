package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"
)

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig     `json:"server"`
	Providers []ProviderConfig `json:"providers"`
	Gateway   GatewayConfig    `json:"gateway"`
	Database  DatabaseConfig   `json:"database"`
	Embedding EmbeddingConfig  `json:"embedding"`
	Retrieval RetrievalConfig  `json:"retrieval"`
	SkillsDir string           `json:"skills_dir"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`

	// RequestDeadlineMS bounds a single inbound message's end-to-end
	// processing time; 0 uses the orchestrator's built-in default.
	RequestDeadlineMS int `json:"request_deadline_ms"`
}

// Deadline returns the configured request deadline, defaulting to 25s
// when unset.
func (s ServerConfig) Deadline() time.Duration {
	if s.RequestDeadlineMS <= 0 {
		return 25 * time.Second
	}
	return time.Duration(s.RequestDeadlineMS) * time.Millisecond
}

// ProviderConfig describes a completion service binding. Field names
// follow the completion env vars (COMPLETION_ENDPOINT, COMPLETION_API_KEY,
// COMPLETION_DEPLOYMENT, COMPLETION_API_VERSION) rather than the provider's
// own vocabulary, since more than one provider type can be configured.
type ProviderConfig struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Name       string            `json:"name"`
	Endpoint   string            `json:"endpoint"`
	APIKey     string            `json:"api_key"`
	Deployment string            `json:"deployment,omitempty"`
	APIVersion string            `json:"api_version,omitempty"`
	Models     []string          `json:"models,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// GatewayConfig holds per-platform credentials. PLATFORM_SIGNING_SECRET
// and PLATFORM_BOT_TOKEN map onto whichever platforms are enabled.
type GatewayConfig struct {
	Slack   SlackGatewayConfig   `json:"slack"`
	Discord DiscordGatewayConfig `json:"discord"`
}

type SlackGatewayConfig struct {
	Enabled       bool   `json:"enabled"`
	BotToken      string `json:"bot_token"`
	AppToken      string `json:"app_token"`
	SigningSecret string `json:"signing_secret"`
	// AppID is this app's own registered api_app_id, used to self-filter
	// bot-authored events without dropping other apps' bot traffic.
	AppID string `json:"app_id"`
}

type DiscordGatewayConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token"`
}

// DatabaseConfig holds the conversation store tiers and the vector index.
// Postgres/Redis map onto DURABLE_STORE_CONN/HOT_CACHE_CONN; when both are
// empty the store falls back to an in-memory implementation.
type DatabaseConfig struct {
	Postgres PostgresConfig `json:"postgres"`
	Redis    RedisConfig    `json:"redis"`
	Qdrant   QdrantConfig   `json:"qdrant"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

// QdrantConfig locates the retrieval index (INDEX_ENDPOINT/INDEX_NAME);
// INDEX_API_KEY is carried for parity with managed Qdrant deployments that
// require one, even though the local gRPC client used here does not send it.
type QdrantConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	APIKey     string `json:"api_key,omitempty"`
	Collection string `json:"collection,omitempty"`
}

// EmbeddingConfig maps onto EMBED_ENDPOINT/EMBED_API_KEY/EMBED_DEPLOYMENT.
type EmbeddingConfig struct {
	Provider  string `json:"provider"`
	Endpoint  string `json:"endpoint"`
	Model     string `json:"model"`
	APIKey    string `json:"api_key"`
	Dimension int    `json:"dimension"`
}

// RetrievalConfig tunes the hybrid retrieval engine's relevance floor and
// the request-level dedup window used to drop re-delivered platform events.
type RetrievalConfig struct {
	MinScore        float32 `json:"min_score"`
	TopK            int     `json:"top_k"`
	DedupWindowSecs int     `json:"dedup_window_secs"`
}

// DedupWindow returns the configured redelivery window, defaulting to
// gateway.defaultDedupWindow (via a <= 0 passthrough) when unset.
func (r RetrievalConfig) DedupWindow() time.Duration {
	if r.DedupWindowSecs <= 0 {
		return 0
	}
	return time.Duration(r.DedupWindowSecs) * time.Second
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file and substitutes environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	var cfg Config
	if err := json.Unmarshal([]byte(resolved), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
