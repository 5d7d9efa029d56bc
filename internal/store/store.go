// Package store implements the encrypted multi-collection document store.
//
// The physical database is SQLite; index columns (ids, day keys, roles,
// categories, timestamps, tombstones) stay cleartext so range scans and
// filters work, while every content payload is sealed with AES-GCM under
// the session key. The key lives only in memory: Open does not need it,
// Unlock verifies it against a sealed keycheck marker, and Close wipes it.
//
// The store is the sole owner of entity lifecycles. Consumers, the sync
// engine included, go through the typed CRUD surface, never raw SQL.
// Every local mutation is published on the change feed; merge writes from
// the sync engine use the Upsert*/Import* variants, which stay silent so a
// sync never re-triggers itself.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/cryptox"
	"github.com/mateotomas2/ai-journaling-sub001/internal/dbx"
	"github.com/mateotomas2/ai-journaling-sub001/internal/logging"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/feed"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/migrations"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/repositories/days"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/repositories/embeddings"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/repositories/messages"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/repositories/metadata"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/repositories/notes"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/repositories/settings"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/repositories/summaries"
)

// Collection names as used on the change feed.
const (
	CollectionDays      = "days"
	CollectionMessages  = "messages"
	CollectionNotes     = "notes"
	CollectionSummaries = "summaries"
)

// Metadata keys.
const (
	metaSalt         = "salt"
	metaIterations   = "iterations"
	metaKeycheck     = "keycheck"
	metaWrappedKey   = "wrapped_key"
	metaRemoteFileID = "remote_file_id"
	metaLastSyncTime = "last_sync_time"
)

const keycheckMarker = "journal-keycheck-v1"

// Store is the encrypted document store. One instance per process; all
// CRUD multiplexes through it. Mutations are serialized by an internal
// mutex so no reader ever observes a partially applied patch.
type Store struct {
	db  *sql.DB
	log logging.Logger

	mu       sync.Mutex
	key      []byte
	unlocked bool

	daysRepo       days.Repository
	messagesRepo   messages.Repository
	notesRepo      notes.Repository
	summariesRepo  summaries.Repository
	embeddingsRepo embeddings.Repository
	settingsRepo   settings.Repository
	metadataRepo   metadata.Repository

	bus *feed.Bus
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (or creates) the database at dsn, applies migrations and
// wires the repositories. The store starts locked: Unlock must succeed
// before any collection operation.
func Open(ctx context.Context, dsn string, log logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{
		db:             db,
		log:            log,
		daysRepo:       days.NewSQLiteRepository(db),
		messagesRepo:   messages.NewSQLiteRepository(db),
		notesRepo:      notes.NewSQLiteRepository(db),
		summariesRepo:  summaries.NewSQLiteRepository(db),
		embeddingsRepo: embeddings.NewSQLiteRepository(db),
		settingsRepo:   settings.NewSQLiteRepository(db),
		metadataRepo:   metadata.NewSQLiteRepository(db),
		bus:            feed.NewBus(),
	}, nil
}

// KeyParams returns the installation's key-derivation salt and iteration
// count, creating and persisting fresh ones on first run. The salt is not
// secret; storing the iteration count beside it means a future iteration
// bump never has to guess which constant produced an existing key.
func (s *Store) KeyParams(ctx context.Context) (salt []byte, iterations int, err error) {
	salt, err = s.metadataRepo.Get(ctx, metaSalt)
	if err != nil {
		return nil, 0, err
	}

	if salt == nil {
		salt = cryptox.GenerateSalt()
		if err := s.metadataRepo.Set(ctx, metaSalt, salt); err != nil {
			return nil, 0, err
		}
		if err := s.metadataRepo.Set(ctx, metaIterations,
			[]byte(strconv.Itoa(cryptox.DefaultIterations))); err != nil {
			return nil, 0, err
		}
		return salt, cryptox.DefaultIterations, nil
	}

	raw, err := s.metadataRepo.Get(ctx, metaIterations)
	if err != nil {
		return nil, 0, err
	}
	if raw == nil {
		// Salt predates the versioned iteration field.
		return salt, cryptox.LegacyIterations, nil
	}
	iterations, err = strconv.Atoi(string(raw))
	if err != nil {
		return nil, 0, fmt.Errorf("corrupt iteration count: %w", err)
	}
	return salt, iterations, nil
}

// Unlock verifies the key against the sealed keycheck marker and enables
// the collection operations. On a fresh installation the marker does not
// exist yet and is sealed now; on an existing one a failed decryption is
// the password check; there is no other way to detect a wrong password.
func (s *Store) Unlock(ctx context.Context, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.metadataRepo.Get(ctx, metaKeycheck)
	if err != nil {
		return err
	}

	if raw == nil {
		ct, nonce, err := cryptox.SealRecord(keycheckMarker, key)
		if err != nil {
			return err
		}
		blob, err := json.Marshal(sealedValue{Ciphertext: ct, Nonce: nonce})
		if err != nil {
			return err
		}
		if err := s.metadataRepo.Set(ctx, metaKeycheck, blob); err != nil {
			return err
		}
	} else {
		var sv sealedValue
		if err := json.Unmarshal(raw, &sv); err != nil {
			return fmt.Errorf("corrupt keycheck record: %w", err)
		}
		var marker string
		if err := cryptox.OpenRecord(sv.Ciphertext, sv.Nonce, key, &marker); err != nil || marker != keycheckMarker {
			return common.ErrInvalidPassword
		}
	}

	s.key = make([]byte, len(key))
	copy(s.key, key)
	s.unlocked = true
	return nil
}

// Feed exposes the change feed for subscription.
func (s *Store) Feed() *feed.Bus { return s.bus }

// Close forgets the in-memory key, shuts the change feed down and
// releases the database handle. The key never touches disk in any form.
func (s *Store) Close() error {
	s.mu.Lock()
	common.WipeByteArray(s.key)
	s.key = nil
	s.unlocked = false
	s.mu.Unlock()

	if err := s.bus.Close(); err != nil {
		s.log.Warn(context.Background(), "closing change feed", "error", err)
	}
	return s.db.Close()
}

// Wipe erases all rows from every collection, metadata included. This is
// the only operation that physically removes data; callers are expected
// to demand an explicit typed confirmation first. The erase is atomic: a
// failure partway leaves the data untouched.
func (s *Store) Wipe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, table := range []string{"messages", "notes", "summaries", "embeddings", "days", "settings", "metadata"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("wiping %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Warn(ctx, "store wiped")
	return nil
}

// sealedValue is the JSON form of a sealed metadata entry.
type sealedValue struct {
	Ciphertext []byte `json:"ct"`
	Nonce      []byte `json:"nonce"`
}

func (s *Store) requireUnlocked() error {
	if !s.unlocked {
		return common.ErrStoreClosed
	}
	return nil
}

func (s *Store) publish(collection, id string, op feed.Op) {
	if err := s.bus.Publish(feed.Change{Collection: collection, ID: id, Op: op}); err != nil {
		s.log.Warn(context.Background(), "publishing change event", "collection", collection, "error", err)
	}
}
