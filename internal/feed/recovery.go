package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/spec-kit/daily-status/internal/domain"
)

const (
	snapshotVersion  = 1
	identityKey      = "daily:identity"
	snapshotPrefix   = "daily:snapshot:"
	metaSuffix       = ":meta"
	defaultChunkSize = 50
)

// KeyValueStore is the local persistent store behind the recovery cache.
// Keys matches a glob pattern where '*' stands for any run of characters,
// '?' for one character, and '\' makes the next character literal.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// Snapshot is the last successful fetch for one user.
type Snapshot struct {
	User    domain.User
	Updates []domain.Update
	SavedAt time.Time
}

type snapshotMeta struct {
	Version    int        `json:"version"`
	ChunkCount int        `json:"chunk_count"`
	SavedAt    time.Time  `json:"saved_at"`
	User       cachedUser `json:"user"`
}

type cachedUser struct {
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
}

// RecoveryCache keeps a versioned, chunked copy of the last successful fetch.
// It is a fallback only: Save is called after live fetches, never as the
// primary write path of any data.
type RecoveryCache struct {
	store     KeyValueStore
	chunkSize int
	now       func() time.Time
}

// NewRecoveryCache builds a cache over store; chunkSize <= 0 uses 50.
func NewRecoveryCache(store KeyValueStore, chunkSize int) *RecoveryCache {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &RecoveryCache{store: store, chunkSize: chunkSize, now: time.Now}
}

func metaKey(email string) string {
	return snapshotPrefix + domain.NormalizeEmail(email) + metaSuffix
}

func chunkKey(email string, index int) string {
	return fmt.Sprintf("%s%s:chunk:%d", snapshotPrefix, domain.NormalizeEmail(email), index)
}

// Save stores updates for user and records user as the cached identity.
func (c *RecoveryCache) Save(ctx context.Context, user domain.User, updates []domain.Update) error {
	email := domain.NormalizeEmail(user.Email)
	if email == "" {
		return errors.New("recovery cache: user email required")
	}

	// An unreadable previous meta only means stale chunks may linger.
	previous, _, _ := c.readMeta(ctx, email)

	chunks := chunk(updates, c.chunkSize)
	for i, part := range chunks {
		payload, err := sonic.MarshalString(part)
		if err != nil {
			return fmt.Errorf("recovery cache: encode chunk %d: %w", i, err)
		}
		if err := c.store.Set(ctx, chunkKey(email, i), payload); err != nil {
			return fmt.Errorf("recovery cache: write chunk %d: %w", i, err)
		}
	}

	identity := cachedUser{Email: email, Name: user.Name, Role: user.Role}
	meta := snapshotMeta{
		Version:    snapshotVersion,
		ChunkCount: len(chunks),
		SavedAt:    c.now().UTC(),
		User:       identity,
	}
	encodedMeta, err := sonic.MarshalString(meta)
	if err != nil {
		return fmt.Errorf("recovery cache: encode meta: %w", err)
	}
	if err := c.store.Set(ctx, metaKey(email), encodedMeta); err != nil {
		return fmt.Errorf("recovery cache: write meta: %w", err)
	}

	if previous != nil && previous.ChunkCount > len(chunks) {
		stale := make([]string, 0, previous.ChunkCount-len(chunks))
		for i := len(chunks); i < previous.ChunkCount; i++ {
			stale = append(stale, chunkKey(email, i))
		}
		_ = c.store.Delete(ctx, stale...)
	}

	encodedIdentity, err := sonic.MarshalString(identity)
	if err != nil {
		return fmt.Errorf("recovery cache: encode identity: %w", err)
	}
	if err := c.store.Set(ctx, identityKey, encodedIdentity); err != nil {
		return fmt.Errorf("recovery cache: write identity: %w", err)
	}
	return nil
}

// Recover resolves the cached identity and returns its snapshot. Without an
// identity record, the most recently saved snapshot found by key pattern wins.
func (c *RecoveryCache) Recover(ctx context.Context) (*Snapshot, error) {
	email, err := c.resolveIdentity(ctx)
	if err != nil {
		return nil, err
	}
	return c.RecoverUser(ctx, email)
}

// RecoverUser returns the snapshot saved for email.
func (c *RecoveryCache) RecoverUser(ctx context.Context, email string) (*Snapshot, error) {
	meta, ok, err := c.readMeta(ctx, email)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSnapshot
	}

	updates := make([]domain.Update, 0, meta.ChunkCount*c.chunkSize)
	for i := 0; i < meta.ChunkCount; i++ {
		raw, found, err := c.store.Get(ctx, chunkKey(email, i))
		if err != nil {
			return nil, fmt.Errorf("recovery cache: read chunk %d: %w", i, err)
		}
		if !found {
			return nil, fmt.Errorf("recovery cache: chunk %d of %d missing: %w", i, meta.ChunkCount, ErrNoSnapshot)
		}
		var part []domain.Update
		if err := sonic.UnmarshalString(raw, &part); err != nil {
			return nil, fmt.Errorf("recovery cache: decode chunk %d: %w", i, err)
		}
		updates = append(updates, part...)
	}

	return &Snapshot{
		User: domain.User{
			Email: meta.User.Email,
			Name:  meta.User.Name,
			Role:  meta.User.Role,
		},
		Updates: updates,
		SavedAt: meta.SavedAt,
	}, nil
}

// Purge removes the snapshot of email and, if it is the cached identity, the
// identity record.
func (c *RecoveryCache) Purge(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	keys, err := c.store.Keys(ctx, snapshotPrefix+escapeGlob(email)+":*")
	if err != nil {
		return fmt.Errorf("recovery cache: list keys: %w", err)
	}
	if identity, ok, err := c.readIdentity(ctx); err == nil && ok && identity == email {
		keys = append(keys, identityKey)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.store.Delete(ctx, keys...)
}

// PurgeAll removes every snapshot and the identity record.
func (c *RecoveryCache) PurgeAll(ctx context.Context) (int, error) {
	keys, err := c.store.Keys(ctx, snapshotPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("recovery cache: list keys: %w", err)
	}
	keys = append(keys, identityKey)
	if err := c.store.Delete(ctx, keys...); err != nil {
		return 0, err
	}
	return len(keys) - 1, nil
}

// Identity returns the email of the cached identity record, if any.
func (c *RecoveryCache) Identity(ctx context.Context) (string, bool, error) {
	return c.readIdentity(ctx)
}

func (c *RecoveryCache) resolveIdentity(ctx context.Context) (string, error) {
	email, ok, err := c.readIdentity(ctx)
	if err != nil {
		return "", err
	}
	if ok {
		return email, nil
	}

	keys, err := c.store.Keys(ctx, snapshotPrefix+"*"+metaSuffix)
	if err != nil {
		return "", fmt.Errorf("recovery cache: list keys: %w", err)
	}
	var (
		best     string
		bestTime time.Time
	)
	for _, key := range keys {
		candidate := strings.TrimSuffix(strings.TrimPrefix(key, snapshotPrefix), metaSuffix)
		meta, found, err := c.readMeta(ctx, candidate)
		if err != nil || !found {
			continue
		}
		if best == "" || meta.SavedAt.After(bestTime) {
			best, bestTime = candidate, meta.SavedAt
		}
	}
	if best == "" {
		return "", ErrNoSnapshot
	}
	return best, nil
}

func (c *RecoveryCache) readIdentity(ctx context.Context) (string, bool, error) {
	raw, ok, err := c.store.Get(ctx, identityKey)
	if err != nil {
		return "", false, fmt.Errorf("recovery cache: read identity: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	var identity cachedUser
	if err := sonic.UnmarshalString(raw, &identity); err != nil || identity.Email == "" {
		return "", false, nil
	}
	return domain.NormalizeEmail(identity.Email), true, nil
}

func (c *RecoveryCache) readMeta(ctx context.Context, email string) (*snapshotMeta, bool, error) {
	raw, ok, err := c.store.Get(ctx, metaKey(email))
	if err != nil {
		return nil, false, fmt.Errorf("recovery cache: read meta: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	var meta snapshotMeta
	if err := sonic.UnmarshalString(raw, &meta); err != nil {
		return nil, false, fmt.Errorf("recovery cache: decode meta: %w", err)
	}
	if meta.Version != snapshotVersion {
		return nil, false, fmt.Errorf("recovery cache: unsupported snapshot version %d: %w", meta.Version, ErrNoSnapshot)
	}
	return &meta, true, nil
}

// escapeGlob makes every glob metacharacter in s literal.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func chunk(updates []domain.Update, size int) [][]domain.Update {
	if len(updates) == 0 {
		return [][]domain.Update{{}}
	}
	chunks := make([][]domain.Update, 0, (len(updates)+size-1)/size)
	for start := 0; start < len(updates); start += size {
		end := min(start+size, len(updates))
		chunks = append(chunks, updates[start:end])
	}
	return chunks
}
