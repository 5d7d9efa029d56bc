package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/cryptox"
	"github.com/mateotomas2/ai-journaling-sub001/internal/remote"
	"github.com/mateotomas2/ai-journaling-sub001/internal/remote/token"
	"github.com/mateotomas2/ai-journaling-sub001/internal/syncx"
)

// getPassword is an indirection used to facilitate testing.
var getPassword = GetPassword

// Unlock prompts for the password, derives the storage key from the
// installation's salt and iteration count, and verifies it against the
// store's keycheck. On success the cross-device sync key is derived and
// the background sync engine starts.
//
// The password and storage key are wiped before returning; only the sync
// key stays in memory for the session.
func (a *App) Unlock(ctx context.Context) error {
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	salt, iterations, err := a.store.KeyParams(ctx)
	if err != nil {
		return err
	}

	key := cryptox.DeriveKey(password, salt, iterations)
	defer common.WipeByteArray(key)

	if err := a.store.Unlock(ctx, key); err != nil {
		if errors.Is(err, common.ErrInvalidPassword) {
			fmt.Println("Invalid password.")
		}
		return err
	}

	a.syncKey = cryptox.DeriveSyncKey(password, iterations)
	a.startSync(ctx)
	return nil
}

// startSync wires the transport and engine when a remote endpoint is
// configured. Without one the journal simply stays local.
func (a *App) startSync(ctx context.Context) {
	if a.config.RemoteEndpoint == "" {
		a.log.Info(ctx, "no remote endpoint configured, sync disabled")
		return
	}

	transport := remote.NewS3Transport(remote.S3Config{
		Region:       a.config.RemoteRegion,
		BaseEndpoint: a.config.RemoteEndpoint,
		Bucket:       a.config.RemoteBucket,
		AccessKey:    a.config.RemoteAccessKey,
		SecretKey:    a.config.RemoteSecretKey,
	})
	tokens := token.Static(os.Getenv("JOURNAL_ACCESS_TOKEN"))

	a.engine = syncx.NewEngine(a.store, transport, tokens, a.syncKey, a.log,
		syncx.WithDebounce(a.config.SyncDebounce))
	if err := a.engine.Start(); err != nil {
		a.log.Warn(ctx, "starting sync engine", "error", err)
	}
}
