package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mateotomas2/ai-journaling-sub001/internal/flagx"
	"github.com/mateotomas2/ai-journaling-sub001/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so JSON can specify intervals either as strings like
// "30s" or as integer nanoseconds. After parsing, values are copied into
// the runtime Config.
type JsonConfig struct {
	DatabasePath    string         `json:"database_path"`
	RemoteEndpoint  string         `json:"remote_endpoint"`
	RemoteBucket    string         `json:"remote_bucket"`
	RemoteRegion    string         `json:"remote_region"`
	RemoteAccessKey string         `json:"remote_access_key"`
	RemoteSecretKey string         `json:"remote_secret_key"`
	SyncDebounce    timex.Duration `json:"sync_debounce"`
	LLMEndpoint     string         `json:"llm_endpoint"`
	EmbeddingModel  string         `json:"embedding_model"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c/-config flags via flagx.JsonConfigFlags;
// with no path the function is a no-op. Absent JSON fields keep their
// earlier (default) values. Read or unmarshal errors panic; config happens
// once at startup and a broken file should stop the program.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.RemoteEndpoint != "" {
		cfg.RemoteEndpoint = jc.RemoteEndpoint
	}
	if jc.RemoteBucket != "" {
		cfg.RemoteBucket = jc.RemoteBucket
	}
	if jc.RemoteRegion != "" {
		cfg.RemoteRegion = jc.RemoteRegion
	}
	if jc.RemoteAccessKey != "" {
		cfg.RemoteAccessKey = jc.RemoteAccessKey
	}
	if jc.RemoteSecretKey != "" {
		cfg.RemoteSecretKey = jc.RemoteSecretKey
	}
	if jc.SyncDebounce.Duration != 0 {
		cfg.SyncDebounce = time.Duration(jc.SyncDebounce.Duration)
	}
	if jc.LLMEndpoint != "" {
		cfg.LLMEndpoint = jc.LLMEndpoint
	}
	if jc.EmbeddingModel != "" {
		cfg.EmbeddingModel = jc.EmbeddingModel
	}
}
