package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/mateotomas2/ai-journaling-sub001/internal/keywrap"
)

// RemoteFileID returns the cached id of the remote sync blob, "" if none.
func (s *Store) RemoteFileID(ctx context.Context) (string, error) {
	v, err := s.metadataRepo.Get(ctx, metaRemoteFileID)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// SetRemoteFileID caches the remote sync blob id.
func (s *Store) SetRemoteFileID(ctx context.Context, id string) error {
	return s.metadataRepo.Set(ctx, metaRemoteFileID, []byte(id))
}

// LastSyncTime returns the completion time of the last successful sync,
// zero time if never synced.
func (s *Store) LastSyncTime(ctx context.Context) (time.Time, error) {
	v, err := s.metadataRepo.Get(ctx, metaLastSyncTime)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

// SetLastSyncTime records a successful sync completion.
func (s *Store) SetLastSyncTime(ctx context.Context, t time.Time) error {
	return s.metadataRepo.Set(ctx, metaLastSyncTime,
		[]byte(strconv.FormatInt(t.UnixMilli(), 10)))
}

// WrappedKeyRecord returns the stored biometric wrapped-key record, nil
// if biometric unlock was never set up.
func (s *Store) WrappedKeyRecord(ctx context.Context) (*keywrap.Record, error) {
	v, err := s.metadataRepo.Get(ctx, metaWrappedKey)
	if err != nil || v == nil {
		return nil, err
	}
	var rec keywrap.Record
	if err := json.Unmarshal(v, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SetWrappedKeyRecord persists the biometric wrapped-key record.
func (s *Store) SetWrappedKeyRecord(ctx context.Context, rec *keywrap.Record) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.metadataRepo.Set(ctx, metaWrappedKey, blob)
}
