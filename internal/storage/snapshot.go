package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dexsync/internal/model"
)

// SnapshotFile exports registry snapshots to a local JSON file for
// downstream consumers. Writes go through a temp file and rename so a
// reader never sees a half-written snapshot.
type SnapshotFile struct {
	Path string
}

func (s *SnapshotFile) Save(snapshot model.StateSnapshot) error {
	if s == nil || s.Path == "" {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}
