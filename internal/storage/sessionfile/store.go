// Package sessionfile persists session carts as one JSON document per
// session in a spool directory. Durability is best-effort by design: the
// in-memory cart stays authoritative and callers swallow write failures.
package sessionfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"

	"github.com/naranjashop/storefront/internal/domain/cart"
)

var _ cart.Store = (*Store)(nil)

const fileExt = ".json"

// Store is a file-backed cart.Store.
type Store struct {
	dir string
}

// New creates the spool directory if needed and returns a Store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrap(err, "create spool dir")
	}
	return &Store{dir: dir}, nil
}

// Save writes the cart snapshot for sessionID, replacing any previous one.
// The write goes through a temp file and rename so readers never observe a
// partial document.
func (s *Store) Save(_ context.Context, sessionID string, items []cart.Item) error {
	if !validSessionID(sessionID) {
		return errors.Errorf("invalid session id %q", sessionID)
	}

	data, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}

	path := filepath.Join(s.dir, sessionID+fileExt)
	tmp, err := os.CreateTemp(s.dir, sessionID+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write cart")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "replace cart file")
	}
	return nil
}

// LoadAll reads every persisted cart, keyed by session ID. Unreadable or
// corrupt files are skipped: a lost cart is annoying, a failed startup is
// worse.
func (s *Store) LoadAll(_ context.Context) (map[string][]cart.Item, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, "read spool dir")
	}

	carts := make(map[string][]cart.Item)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}

		sessionID := strings.TrimSuffix(name, fileExt)
		if !validSessionID(sessionID) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}

		var items []cart.Item
		if err := json.Unmarshal(data, &items); err != nil {
			continue
		}
		carts[sessionID] = items
	}
	return carts, nil
}

// Delete removes the persisted cart for sessionID. Deleting an absent cart
// is a no-op.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	if !validSessionID(sessionID) {
		return errors.Errorf("invalid session id %q", sessionID)
	}
	err := os.Remove(filepath.Join(s.dir, sessionID+fileExt))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove cart file")
	}
	return nil
}

// validSessionID accepts only the characters our minted UUIDs contain,
// keeping session IDs safe to use as file names.
func validSessionID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for i := range len(id) {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}
