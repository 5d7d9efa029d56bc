package config

import (
	"flag"
	"os"
	"time"

	"github.com/mateotomas2/ai-journaling-sub001/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   path to the encrypted database file
//	-e string   endpoint URL of the S3-compatible app-data store
//	-b string   bucket name in the app-data store
//	-r string   region of the app-data store
//	-l string   base URL of the LLM proxy
//	-m string   embedding model tag (name@version)
//	-s int      sync debounce interval in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-e", "-b", "-r", "-l", "-m", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the encrypted database file")
	fs.StringVar(&cfg.RemoteEndpoint, "e", cfg.RemoteEndpoint, "endpoint URL of the app-data store")
	fs.StringVar(&cfg.RemoteBucket, "b", cfg.RemoteBucket, "bucket name in the app-data store")
	fs.StringVar(&cfg.RemoteRegion, "r", cfg.RemoteRegion, "region of the app-data store")
	fs.StringVar(&cfg.LLMEndpoint, "l", cfg.LLMEndpoint, "base URL of the LLM proxy")
	fs.StringVar(&cfg.EmbeddingModel, "m", cfg.EmbeddingModel, "embedding model tag (name@version)")
	syncDebounce := fs.Int("s", int(cfg.SyncDebounce.Seconds()), "sync debounce interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncDebounce = time.Duration(*syncDebounce) * time.Second
}
