// Package vault implements C1, the pluggable credential vault: a TTL cache
// in front of one of two backends (local env-file, AWS Secrets Manager).
// The shape (interface + background-safe locking)
// follows server/cursor/client.go's client construction; the backend
// plugability follows the way the teacher swaps its Cursor/GitHub clients
// in OnConfigurationChange based on which credentials are configured.
package vault

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// Backend fetches a single credential's current value from its source of
// truth. Implementations: backend_envfile.go, backend_secretsmanager.go.
type Backend interface {
	Name() models.CredentialBackend
	Fetch(ctx context.Context, key string) (string, error)
	List(ctx context.Context) ([]string, error)
}

// Vault is the C1 credential vault: backend plus TTL cache.
type Vault struct {
	backend Backend
	ttl     time.Duration

	mu    sync.RWMutex
	cache map[string]models.Credential
}

// New builds a Vault over backend with the given cache TTL.
func New(backend Backend, ttl time.Duration) *Vault {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &Vault{
		backend: backend,
		ttl:     ttl,
		cache:   make(map[string]models.Credential),
	}
}

// Get returns the named credential's value, using the TTL cache when the
// entry hasn't expired and fetching from the backend otherwise.
func (v *Vault) Get(ctx context.Context, key string) (string, error) {
	v.mu.RLock()
	cred, ok := v.cache[key]
	v.mu.RUnlock()
	if ok && time.Since(cred.FetchedAt) < v.ttl {
		return cred.Value, nil
	}

	value, err := v.backend.Fetch(ctx, key)
	if err != nil {
		return "", errors.Wrapf(models.ErrCredentialUnavailable, "fetch %q: %v", key, err)
	}

	v.mu.Lock()
	v.cache[key] = models.Credential{Key: key, Value: value, FetchedAt: time.Now()}
	v.mu.Unlock()

	return value, nil
}

// List returns the value-free metadata for every credential the backend
// knows about, for audit display. Entries not yet cached report a zero
// FetchedAt/ExpiresAt.
func (v *Vault) List(ctx context.Context) ([]models.CredentialInfo, error) {
	keys, err := v.backend.List(ctx)
	if err != nil {
		return nil, errors.Wrap(models.ErrCredentialUnavailable, err.Error())
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	infos := make([]models.CredentialInfo, 0, len(keys))
	for _, k := range keys {
		info := models.CredentialInfo{Key: k, Backend: string(v.backend.Name())}
		if cred, ok := v.cache[k]; ok {
			info.FetchedAt = cred.FetchedAt
			info.ExpiresAt = cred.FetchedAt.Add(v.ttl)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Invalidate evicts key from the cache, forcing the next Get to hit the
// backend. Used after an operator rotates a credential out of band.
func (v *Vault) Invalidate(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.cache, key)
}
