// Package storepath resolves where chat sessions live and opens the
// matching store driver, shared by every subcommand.
package storepath

import (
	"fmt"

	"github.com/buildfastwithai/researchchat/pkg/config"
	"github.com/buildfastwithai/researchchat/pkg/session"
)

// Open returns the session store selected by the flags: a SQLite store when
// dbPath is set, otherwise a JSON file store over dir (defaulting to the
// config directory).
func Open(dir, dbPath string) (session.Store, error) {
	if dbPath != "" {
		store, err := session.NewSQLiteStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open session database %s: %w", dbPath, err)
		}
		return store, nil
	}

	if dir == "" {
		dir = config.DefaultStoreDir()
	}
	store, err := session.NewFileStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open session dir %s: %w", dir, err)
	}
	return store, nil
}
