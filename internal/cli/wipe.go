package cli

import (
	"context"
	"fmt"
	"os"
)

// wipe erases all local data after a typed confirmation. The remote blob
// is left alone; another device can restore from it.
func (a *App) wipe(ctx context.Context) {
	confirmation, err := GetSimpleText(a.reader,
		"This erases ALL local journal data. Type DELETE to confirm", os.Stdout)
	if err != nil {
		return
	}
	if confirmation != "DELETE" {
		fmt.Println("Aborted.")
		return
	}

	if err := a.store.Wipe(ctx); err != nil {
		fmt.Println(err.Error())
		return
	}
	fmt.Println("All local data erased.")
}
