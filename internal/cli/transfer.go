package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mateotomas2/ai-journaling-sub001/internal/codec"
	"github.com/mateotomas2/ai-journaling-sub001/internal/filex"
)

// export dumps the full dataset to a plaintext JSON file under exports/.
// The file is NOT encrypted; it is the user's own readable copy.
func (a *App) export(ctx context.Context) {
	env, err := codec.Export(ctx, a.store)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	dir, err := filex.EnsureSubDir("exports")
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	path := filepath.Join(dir, "journal-export-"+today()+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		fmt.Println(err.Error())
		return
	}
	fmt.Println("Exported to", path)
}

// importFile reads a previously exported JSON file and inserts records
// that do not exist locally yet, then syncs so other devices pick the
// imported data up.
func (a *App) importFile(ctx context.Context) {
	path, err := GetSimpleText(a.reader, "Enter path to export file", os.Stdout)
	if err != nil || path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	var env codec.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		fmt.Println("Not a valid export file:", err.Error())
		return
	}

	report, err := codec.Import(ctx, a.store, &env)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	for collection, n := range report.Imported {
		fmt.Printf("%s: %d imported, %d skipped\n", collection, n, report.Skipped[collection])
	}
	for _, e := range report.Errors {
		fmt.Println("error:", e)
	}

	if a.engine != nil {
		if err := a.engine.Sync(ctx); err != nil {
			fmt.Println("sync after import:", err.Error())
		}
	}
}
