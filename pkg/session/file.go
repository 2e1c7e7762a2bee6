package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/spantower/pkg/cache"
)

// FileStore persists sessions as entries of a [cache.FileCache], which
// gives it atomic writes and expiry for free. Ids that are not uuids are
// never looked up.
type FileStore struct {
	files *cache.FileCache
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("session dir is required")
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{files: fc}, nil
}

func entryKey(id string) string { return "view:" + id }

func (s *FileStore) Get(ctx context.Context, id string) (*Session, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	data, ok, err := s.files.Get(ctx, entryKey(id))
	if err != nil {
		return nil, fmt.Errorf("read view %s: %w", id, err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode view %s: %w", id, err)
	}
	if sess.IsExpired() {
		_ = s.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return &sess, nil
}

// Set writes sess with a lifetime running to its ExpiresAt. A session that
// has already expired is removed instead.
func (s *FileStore) Set(ctx context.Context, sess *Session) error {
	if !ValidID(sess.ID) {
		return fmt.Errorf("invalid view id %q", sess.ID)
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, sess.ID)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode view: %w", err)
	}
	return s.files.Set(ctx, entryKey(sess.ID), data, ttl)
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return nil
	}
	return s.files.Delete(ctx, entryKey(id))
}

func (s *FileStore) Cleanup(ctx context.Context) error {
	_, err := s.files.Prune(ctx)
	return err
}

// Path returns the store directory.
func (s *FileStore) Path() string { return s.files.Dir() }
