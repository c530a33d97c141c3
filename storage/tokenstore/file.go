package tokenstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/aliqadomi777/front-end-lms/core/session"
)

// FileStore keeps the token in a JSON file readable only by the current user.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileContent struct {
	Token string `json:"token"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (fs *FileStore) Get(context.Context) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", session.ErrNoToken
		}
		return "", errors.Wrap(err, "reading token file")
	}
	var content fileContent
	if err := json.Unmarshal(data, &content); err != nil {
		return "", errors.Wrap(err, "decoding token file")
	}
	if content.Token == "" {
		return "", session.ErrNoToken
	}
	return content.Token, nil
}

func (fs *FileStore) Set(ctx context.Context, token string) error {
	if d, ok := ttl(token); ok && d == 0 {
		return fs.Clear(ctx)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := json.Marshal(fileContent{Token: token})
	if err != nil {
		return errors.Wrap(err, "encoding token file")
	}
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return errors.Wrap(err, "creating token dir")
	}

	// write then rename so a crash never leaves a half-written slot
	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".token-*")
	if err != nil {
		return errors.Wrap(err, "creating temp token file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing temp token file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "chmod temp token file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp token file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), fs.path), "replacing token file")
}

func (fs *FileStore) Clear(context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing token file")
	}
	return nil
}
