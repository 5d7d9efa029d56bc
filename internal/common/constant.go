package common

// SyncBlobName is the well-known name of the single remote snapshot file
// inside the app-data area of the cloud store.
const SyncBlobName = "journal-sync.blob"
