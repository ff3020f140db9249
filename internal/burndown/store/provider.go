package store

import "github.com/sprintdeck/sprintdeck/internal/common/config"

// Provide builds the configured burndown store. An empty path selects the
// in-memory store.
func Provide(cfg *config.Config) (Store, func() error, error) {
	if cfg.Burndown.DBPath == "" {
		mem := NewMemoryStore()
		return mem, mem.Close, nil
	}
	sqlite, err := NewSQLiteStore(cfg.Burndown.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return sqlite, sqlite.Close, nil
}
