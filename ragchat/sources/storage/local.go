package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore writes documents under a root directory, named by their filename.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Backend() string { return BackendLocal }

func (s *LocalStore) Put(_ context.Context, name string, content []byte, contentType string) (Reference, error) {
	name = CleanName(name)
	if name == "" {
		return Reference{}, errors.New("empty document name")
	}
	p := filepath.Join(s.root, name)
	// Readers never see a partial file.
	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return Reference{}, err
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Reference{}, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Reference{}, err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return Reference{}, err
	}
	return Reference{
		Backend:     BackendLocal,
		Key:         p,
		Name:        name,
		Size:        int64(len(content)),
		ContentType: contentType,
	}, nil
}

func (s *LocalStore) Open(_ context.Context, ref Reference) (io.ReadCloser, error) {
	f, err := os.Open(ref.Key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", ref.Key, ErrNotFound)
		}
		return nil, err
	}
	return f, nil
}
