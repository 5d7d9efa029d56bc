package syncx

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mateotomas2/ai-journaling-sub001/internal/codec"
	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/cryptox"
)

// Sync blob wire format: "v1:<keyid>:<base64(nonce ‖ ciphertext)>".
//
// The key id is a cleartext fingerprint of the sync key. It exists to
// separate two failure modes that must be handled very differently:
// a blob sealed under a different password (refuse to touch it, it may
// be someone else's data) versus a corrupted blob under our own key
// (overwrite it and move on). Blobs from before the header ("bare"
// base64) carry no fingerprint; for those a failed decryption keeps the
// old overwrite behavior.
const blobPrefix = "v1:"

// SealSyncBlob encrypts the envelope for upload, stamping SyncedAt.
func SealSyncBlob(env *codec.Envelope, syncKey []byte) ([]byte, error) {
	env.SyncedAt = time.Now().UTC().Format(time.RFC3339)
	env.ExportedAt = ""

	plaintext, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	sealed, err := cryptox.SealBlob(plaintext, syncKey)
	if err != nil {
		return nil, err
	}
	return []byte(blobPrefix + cryptox.KeyID(syncKey) + ":" + sealed), nil
}

// OpenSyncBlob decrypts and parses a downloaded blob.
//
// Returns common.ErrForeignRemote when the blob's key fingerprint does
// not match ours, and common.ErrRemoteUnreadable for everything the
// engine should treat as "no usable remote data".
func OpenSyncBlob(data []byte, syncKey []byte) (*codec.Envelope, error) {
	raw := string(data)

	if strings.HasPrefix(raw, blobPrefix) {
		rest := strings.TrimPrefix(raw, blobPrefix)
		sep := strings.IndexByte(rest, ':')
		if sep < 0 {
			return nil, fmt.Errorf("%w: truncated header", common.ErrRemoteUnreadable)
		}
		if rest[:sep] != cryptox.KeyID(syncKey) {
			return nil, common.ErrForeignRemote
		}
		raw = rest[sep+1:]
	}

	plaintext, err := cryptox.OpenBlob(raw, syncKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRemoteUnreadable, err)
	}

	var env codec.Envelope
	if err := json.Unmarshal(plaintext, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRemoteUnreadable, err)
	}
	if err := codec.Validate(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRemoteUnreadable, err)
	}
	return &env, nil
}

// IsForeign reports whether err marks a blob sealed under another key.
func IsForeign(err error) bool { return errors.Is(err, common.ErrForeignRemote) }
