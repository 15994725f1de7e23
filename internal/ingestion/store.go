package ingestion

import (
	"fmt"
	"os"
	"path/filepath"

	logx "github.com/anime-mvp/assistant/pkg/logger"
)

// StoreConfig selects where raw payloads land.
type StoreConfig struct {
	Root string `envconfig:"RAW_DATA_ROOT" default:"data/raw"`
}

// ObjectStore is the raw-payload sink for the fetcher and the source for the
// ETL job.
type ObjectStore interface {
	Put(date, name string, data []byte) error
	List(date, prefix string) ([]string, error)
	Read(date, name string) ([]byte, error)
}

// LocalObjectStore keeps raw JSON under <root>/<date>/<name>.json on the
// local filesystem.
type LocalObjectStore struct {
	root string
}

func NewLocalObjectStore(cfg StoreConfig) *LocalObjectStore {
	root := cfg.Root
	if root == "" {
		root = "data/raw"
	}
	return &LocalObjectStore{root: root}
}

func (s *LocalObjectStore) path(date, name string) string {
	return filepath.Join(s.root, date, name)
}

// Put writes one raw payload, creating the date partition directory on first
// write.
func (s *LocalObjectStore) Put(date, name string, data []byte) error {
	p := s.path(date, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("ensure raw dir: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	logx.Debug().Str("path", p).Int("bytes", len(data)).Msg("stored raw payload")
	return nil
}

// List returns the file names in one date partition matching the prefix. A
// missing partition is an empty listing, not an error.
func (s *LocalObjectStore) List(date, prefix string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list raw partition: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if prefix == "" || len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *LocalObjectStore) Read(date, name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(date, name))
	if err != nil {
		return nil, fmt.Errorf("read raw payload: %w", err)
	}
	return data, nil
}
