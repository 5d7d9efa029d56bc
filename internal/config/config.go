package config

import "time"

// Config holds runtime settings for the journal CLI.
//
// Fields:
//   - DatabasePath: location of the encrypted SQLite database file.
//   - RemoteEndpoint/RemoteBucket/RemoteRegion: the S3-compatible app-data
//     store holding the sync blob.
//   - RemoteAccessKey/RemoteSecretKey: static credentials for that store.
//   - SyncDebounce: quiet period after the last local change before an
//     automatic sync fires.
//   - LLMEndpoint: base URL of the chat/summary/query proxy.
//   - EmbeddingModel: "name@version" tag of the embedding model; vectors
//     stamped with a different tag are considered stale.
type Config struct {
	DatabasePath    string
	RemoteEndpoint  string
	RemoteBucket    string
	RemoteRegion    string
	RemoteAccessKey string
	RemoteSecretKey string
	SyncDebounce    time.Duration
	LLMEndpoint     string
	EmbeddingModel  string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "journal.db"
	c.RemoteBucket = "journal-appdata"
	c.RemoteRegion = "us-east-1"
	c.SyncDebounce = 30 * time.Second
	c.EmbeddingModel = "all-minilm-l6-v2@1"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
