package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	logging "wallet-tracker/internal/infra/log"

	"go.uber.org/zap"
)

const (
	TopTraderDir      = "top_trader"
	ContractListFile  = "contract_address_list.json"
	UploadsDir        = "uploads"
	jsonExt           = ".json"
	snapshotFilePerms = 0644
)

// Store keeps JSON snapshots under a single root directory.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	if root == "" {
		root = "data_out"
	}
	return &Store{root: root}
}

func (s *Store) Root() string { return s.root }

// Path joins name under the root. Names may contain one level of sub-directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name)
}

// SaveJSON writes v as indented JSON. The file is replaced atomically through a temp file.
func (s *Store) SaveJSON(name string, v interface{}) error {
	fullPath := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	// concurrent writers of one name each get their own temp file; the last rename wins
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), filepath.Base(fullPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", name, err)
	}
	tempFilePath := tmp.Name()
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tempFilePath, snapshotFilePerms)
	}
	if err != nil {
		os.Remove(tempFilePath)
		return fmt.Errorf("failed to write temporary file for %s: %w", name, err)
	}
	if err := os.Rename(tempFilePath, fullPath); err != nil {
		os.Remove(tempFilePath)
		return fmt.Errorf("failed to rename temporary file to %s: %w", name, err)
	}

	logging.LogDebug("Saved JSON snapshot", zap.String("file", fullPath))
	return nil
}

// LoadJSON reads name into v. A missing file yields an error matching os.ErrNotExist.
func (s *Store) LoadJSON(name string, v interface{}) error {
	fullPath := s.Path(name)

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return fmt.Errorf("failed to parse %s: empty file", name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// TopTraderName is the snapshot name holding the trader list of one token.
func TopTraderName(token string) string {
	return filepath.Join(TopTraderDir, SafeFileName(token)+jsonExt)
}

// ListJSON returns the base names (without extension) of the snapshots in dir, sorted.
func (s *Store) ListJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(s.Path(dir))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), jsonExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), jsonExt))
	}
	sort.Strings(names)
	return names, nil
}

// RemoveDir deletes dir and everything below it.
func (s *Store) RemoveDir(dir string) error {
	if err := os.RemoveAll(s.Path(dir)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	return nil
}

// SafeFileName replaces path separators and characters Windows rejects.
func SafeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, name)
}
