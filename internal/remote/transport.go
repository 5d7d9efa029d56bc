// Package remote is the minimal client for the cloud app-data store the
// sync engine keeps its single encrypted snapshot in. The contract is
// deliberately tiny: find the well-known blob, download it, upload a
// replacement. Auth failures must be distinguishable from everything else
// so the engine can ask the user to re-grant access instead of retrying.
package remote

import "context"

// Transport abstracts the remote blob store. An empty file id from
// FindByName means "no remote snapshot yet".
type Transport interface {
	// FindByName resolves the well-known blob name to a file id, or ""
	// when no such blob exists.
	FindByName(ctx context.Context, token, name string) (string, error)

	// Download fetches the blob bytes by file id.
	Download(ctx context.Context, token, fileID string) ([]byte, error)

	// Upload creates the blob (existingID == "") or replaces it in place,
	// returning the file id to cache for next time.
	Upload(ctx context.Context, token, name string, data []byte, existingID string) (string, error)
}
