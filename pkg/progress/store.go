package progress

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dacweb/dac/pkg/database"
	"github.com/dacweb/dac/pkg/models"
	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned by a Store when nothing has been saved under a key.
var ErrNotFound = errors.New("progress not found")

// Store is a small key-value store for serialized progress maps. Each store
// belongs to exactly one device.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
	return nil
}

// FileStore keeps one JSON file per key inside Dir. Writes are atomic, so a
// crash mid-save leaves the previous map in place.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.Dir, key+".json")
}

func (s *FileStore) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}
	return data, nil
}

func (s *FileStore) Save(_ context.Context, key string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return errors.Wrapf(err, "failed to create progress directory %s", s.Dir)
	}

	pending, err := renameio.NewPendingFile(s.path(key), renameio.WithPermissions(0o600))
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := pending.Write(data); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(pending.CloseAtomicallyReplace())
}

// DBStore keeps a device's progress in the progress_blobs table.
type DBStore struct {
	db         *bun.DB
	deviceID   string
	maxRetries int
}

func NewDBStore(db *bun.DB, deviceID string, maxRetries int) *DBStore {
	return &DBStore{db, deviceID, maxRetries}
}

func (s *DBStore) Load(ctx context.Context, key string) ([]byte, error) {
	blob := &models.ProgressBlob{}
	err := s.db.
		NewSelect().
		Model(blob).
		Where("pb.device_id = ?", s.deviceID).
		Where("pb.storage_key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}
	return []byte(blob.Data), nil
}

func (s *DBStore) Save(ctx context.Context, key string, data []byte) error {
	blob := &models.ProgressBlob{
		DeviceID:   s.deviceID,
		StorageKey: key,
		Data:       string(data),
		UpdatedAt:  time.Now(),
	}
	return database.RunInTx(ctx, s.db, s.maxRetries, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.
			NewInsert().
			Model(blob).
			On("CONFLICT (device_id, storage_key) DO UPDATE").
			Set("data = EXCLUDED.data").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return errors.WithStack(err)
	})
}
