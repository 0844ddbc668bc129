// Package secrets resolves named credentials at process start.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source fetches a named credential. ok is false when the name is absent.
type Source interface {
	Get(ctx context.Context, name string) (value string, ok bool, err error)
}

// EnvSource reads secrets from the process environment.
type EnvSource struct{}

func (EnvSource) Get(_ context.Context, name string) (string, bool, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// DirSource reads one file per secret, as mounted by container runtimes.
type DirSource struct {
	Dir string
}

func (d DirSource) Get(_ context.Context, name string) (string, bool, error) {
	if strings.ContainsAny(name, `/\`) {
		return "", false, fmt.Errorf("invalid secret name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(d.Dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	v := strings.TrimSpace(string(data))
	return v, v != "", nil
}

// Chain asks each source in order and returns the first hit.
type Chain []Source

func (c Chain) Get(ctx context.Context, name string) (string, bool, error) {
	for _, s := range c {
		v, ok, err := s.Get(ctx, name)
		if err != nil {
			return "", false, fmt.Errorf("secret %s: %w", name, err)
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

// Require resolves every name or reports all the missing ones at once.
func Require(ctx context.Context, src Source, names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		v, ok, err := src.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, name)
			continue
		}
		values[name] = v
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing secrets: %s", strings.Join(missing, ", "))
	}
	return values, nil
}
