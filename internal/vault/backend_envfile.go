package vault

import (
	"bufio"
	"context"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// EnvFileBackend reads KEY=VALUE pairs from a local file, re-reading it on
// every Fetch and List so an operator editing the file on disk is picked up
// without a restart.
type EnvFileBackend struct {
	path string

	mu       sync.Mutex
	snapshot map[string]string
}

// NewEnvFileBackend opens path (which need not exist yet; Fetch/List will
// simply report no keys until it does).
func NewEnvFileBackend(path string) *EnvFileBackend {
	return &EnvFileBackend{path: path}
}

func (b *EnvFileBackend) Name() models.CredentialBackend {
	return models.CredentialBackendEnvFile
}

func (b *EnvFileBackend) Fetch(ctx context.Context, key string) (string, error) {
	vals, err := b.read()
	if err != nil {
		return "", err
	}
	v, ok := vals[key]
	if !ok {
		return "", errors.Errorf("key %q not present in %s", key, b.path)
	}
	return v, nil
}

func (b *EnvFileBackend) List(ctx context.Context) ([]string, error) {
	vals, err := b.read()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *EnvFileBackend) read() (map[string]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := os.Open(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, errors.Wrapf(err, "open env file %s", b.path)
	}
	defer f.Close()

	vals := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		vals[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "scan env file %s", b.path)
	}

	b.snapshot = vals
	return vals, nil
}
