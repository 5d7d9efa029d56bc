package main

import (
	"context"
	"log"
	"os"

	"github.com/mateotomas2/ai-journaling-sub001/internal/cli"
	"github.com/mateotomas2/ai-journaling-sub001/internal/config"
	"github.com/mateotomas2/ai-journaling-sub001/internal/logging"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewTextLogger(os.Stderr)

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
