package cli

import (
	"context"
	"fmt"
)

// sync runs one manual sync round.
func (a *App) sync(ctx context.Context) {
	if a.engine == nil {
		fmt.Println("Sync is disabled: no remote endpoint configured.")
		return
	}
	if err := a.engine.Sync(ctx); err != nil {
		fmt.Println(err.Error())
		return
	}
	fmt.Println("Synced.")
}

// status prints the engine state and the last successful sync time.
func (a *App) status(ctx context.Context) {
	if a.engine == nil {
		fmt.Println("Sync is disabled: no remote endpoint configured.")
		return
	}

	fmt.Println("State:", a.engine.State())
	if err := a.engine.Err(); err != nil {
		fmt.Println("Last error:", err.Error())
	}

	last, err := a.engine.LastSyncTime(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	if last.IsZero() {
		fmt.Println("Never synced.")
	} else {
		fmt.Println("Last sync:", last.Format("2006-01-02 15:04:05"))
	}
}
