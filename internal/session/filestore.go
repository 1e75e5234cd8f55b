package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	agenterrors "copilot/internal/errors"
	"copilot/internal/logging"
)

// FileStore persists one JSON document per session under a base directory.
type FileStore struct {
	baseDir string
	logger  logging.Logger
}

// NewFileStore creates the base directory if needed and returns a Store over
// it.
func NewFileStore(baseDir string) (*FileStore, error) {
	if strings.HasPrefix(baseDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		baseDir = filepath.Join(home, baseDir[2:])
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{
		baseDir: baseDir,
		logger:  logging.NewComponentLogger("SessionFileStore"),
	}, nil
}

var _ Store = (*FileStore)(nil)

func (f *FileStore) path(id string) string {
	return filepath.Join(f.baseDir, fmt.Sprintf("%s.json", id))
}

func (f *FileStore) GetByID(ctx context.Context, id string) (*Session, error) {
	data, err := os.ReadFile(f.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, agenterrors.New(agenterrors.KindNotFound, "session %s not found", id)
		}
		return nil, agenterrors.Wrap(agenterrors.KindStoreUnavailable, err, "read session %s", id)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		f.logger.Error("Failed to decode session file %s: %v", f.path(id), err)
		return nil, agenterrors.Wrap(agenterrors.KindStoreUnavailable, err, "decode session %s", id)
	}
	return &s, nil
}

func (f *FileStore) GetByOwner(ctx context.Context, ownerID string) ([]*Session, error) {
	all, err := f.scan()
	if err != nil {
		return nil, err
	}
	var out []*Session
	for _, s := range all {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *FileStore) ListActive(ctx context.Context) ([]*Session, error) {
	all, err := f.scan()
	if err != nil {
		return nil, err
	}
	var out []*Session
	for _, s := range all {
		if s.Status == StatusActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *FileStore) Add(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return agenterrors.New(agenterrors.KindInvalidArgument, "session id is required")
	}

	finalizeSequences(s.Messages, 0)
	s.Version = 1

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return agenterrors.Wrap(agenterrors.KindStoreUnavailable, err, "encode session %s", s.ID)
	}

	// Create exclusively so a duplicate id surfaces instead of overwriting.
	file, err := os.OpenFile(f.path(s.ID), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return agenterrors.New(agenterrors.KindConflict, "session %s already exists", s.ID)
		}
		return agenterrors.Wrap(agenterrors.KindStoreUnavailable, err, "create session %s", s.ID)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(data); err != nil {
		return agenterrors.Wrap(agenterrors.KindStoreUnavailable, err, "write session %s", s.ID)
	}
	return nil
}

func (f *FileStore) Update(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return agenterrors.New(agenterrors.KindInvalidArgument, "session id is required")
	}

	stored, err := f.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	if stored.Version != s.Version {
		return agenterrors.New(agenterrors.KindConflict,
			"session %s version %d does not match stored version %d", s.ID, s.Version, stored.Version)
	}

	finalizeSequences(s.Messages, len(stored.Messages))
	s.Version++

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return agenterrors.Wrap(agenterrors.KindStoreUnavailable, err, "encode session %s", s.ID)
	}
	if err := os.WriteFile(f.path(s.ID), data, 0o644); err != nil {
		return agenterrors.Wrap(agenterrors.KindStoreUnavailable, err, "write session %s", s.ID)
	}
	return nil
}

func (f *FileStore) Delete(ctx context.Context, id string) error {
	if err := os.Remove(f.path(id)); err != nil {
		if os.IsNotExist(err) {
			return agenterrors.New(agenterrors.KindNotFound, "session %s not found", id)
		}
		return agenterrors.Wrap(agenterrors.KindStoreUnavailable, err, "delete session %s", id)
	}
	return nil
}

func (f *FileStore) Exists(ctx context.Context, id string) (bool, error) {
	_, err := os.Stat(f.path(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, agenterrors.Wrap(agenterrors.KindStoreUnavailable, err, "stat session %s", id)
}

func (f *FileStore) scan() ([]*Session, error) {
	entries, err := os.ReadDir(f.baseDir)
	if err != nil {
		return nil, agenterrors.Wrap(agenterrors.KindStoreUnavailable, err, "list sessions")
	}

	var out []*Session
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.baseDir, entry.Name()))
		if err != nil {
			f.logger.Error("Failed to read session file %s: %v", entry.Name(), err)
			continue
		}
		var s Session
		if err := json.Unmarshal(data, &s); err != nil {
			f.logger.Error("Failed to decode session file %s: %v", entry.Name(), err)
			continue
		}
		out = append(out, &s)
	}
	return out, nil
}
