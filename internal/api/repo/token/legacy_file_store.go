package token_repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"ShopFulfillment/internal/api/domain/token"

	"github.com/goccy/go-json"
)

// LegacyFileStore keeps tokens in a flat JSON list on disk. It is safe for a single
// process only; every operation reads and rewrites the whole file under one lock.
type LegacyFileStore struct {
	path string
	mu   sync.Mutex
}

var _ token.Store = (*LegacyFileStore)(nil)

func NewLegacyFileStore(path string) *LegacyFileStore {
	return &LegacyFileStore{path: path}
}

func (s *LegacyFileStore) Create(_ context.Context, t token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return err
	}
	if slices.ContainsFunc(tokens, func(e token.Token) bool { return e.Token == t.Token }) {
		return token.ErrAlreadyExists
	}
	return s.save(append(tokens, t))
}

func (s *LegacyFileStore) Get(_ context.Context, value string) (token.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return token.Token{}, err
	}
	i := indexOf(tokens, value)
	if i < 0 {
		return token.Token{}, token.ErrNotFound
	}
	return tokens[i], nil
}

func (s *LegacyFileStore) MarkStarted(_ context.Context, value string, at time.Time) error {
	return s.update(value, func(t *token.Token) bool {
		t.Started = true
		if t.StartedAt == nil {
			t.StartedAt = &at
		}
		return true
	})
}

func (s *LegacyFileStore) MarkCompleted(_ context.Context, value string, at time.Time) (bool, error) {
	var won bool
	err := s.update(value, func(t *token.Token) bool {
		if t.Completed || t.Purged() {
			return false
		}
		t.Completed = true
		t.CompletedAt = &at
		won = true
		return true
	})
	if errors.Is(err, token.ErrNotFound) {
		return false, nil
	}
	return won, err
}

func (s *LegacyFileStore) Purge(_ context.Context, value string) error {
	err := s.update(value, func(t *token.Token) bool {
		if t.Completed || t.Purged() {
			return false
		}
		t.FilePaths = nil
		return true
	})
	if errors.Is(err, token.ErrNotFound) {
		return nil
	}
	return err
}

func (s *LegacyFileStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return 0, err
	}

	var purged int64
	for i := range tokens {
		t := &tokens[i]
		if !t.Completed && !t.Purged() && t.ExpiredAt(now) {
			t.FilePaths = nil
			purged++
		}
	}
	if purged == 0 {
		return 0, nil
	}
	return purged, s.save(tokens)
}

// update applies fn to the stored token and persists the list when fn reports a change.
func (s *LegacyFileStore) update(value string, fn func(t *token.Token) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return err
	}
	i := indexOf(tokens, value)
	if i < 0 {
		return token.ErrNotFound
	}
	if !fn(&tokens[i]) {
		return nil
	}
	return s.save(tokens)
}

func (s *LegacyFileStore) load() ([]token.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token file %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var tokens []token.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("decode token file %s: %w", s.path, err)
	}
	return tokens, nil
}

func (s *LegacyFileStore) save(tokens []token.Token) error {
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tokens: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp token file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename token file %s: %w", s.path, err)
	}
	return nil
}

func indexOf(tokens []token.Token, value string) int {
	return slices.IndexFunc(tokens, func(t token.Token) bool { return t.Token == value })
}
