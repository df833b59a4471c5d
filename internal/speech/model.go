package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"
)

// DefaultModelURL points at the ggml base model used by whisper.cpp servers.
const DefaultModelURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin"

// ModelManager makes sure the recognition model file is present, downloading
// it on first use. Concurrent Ensure calls share a single download.
type ModelManager struct {
	dir    string
	file   string
	url    string
	client *http.Client
	logger *slog.Logger

	group singleflight.Group
}

// NewModelManager creates a manager for dir/file, downloading from url when
// the file is missing. An empty url disables downloading.
func NewModelManager(dir, file, url string, logger *slog.Logger) *ModelManager {
	return &ModelManager{
		dir:  dir,
		file: file,
		url:  url,
		// No client timeout: the model is large and ctx bounds the call.
		client: &http.Client{},
		logger: logger,
	}
}

// Path returns where the model file lives.
func (m *ModelManager) Path() string {
	return filepath.Join(m.dir, m.file)
}

// Ensure returns the model path, downloading the model if it is not on disk yet.
// The shared download outlives any single caller: cancelling ctx only stops
// this caller from waiting on it.
func (m *ModelManager) Ensure(ctx context.Context) (string, error) {
	ch := m.group.DoChan(m.file, func() (any, error) {
		return m.ensure(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (m *ModelManager) ensure(ctx context.Context) (string, error) {
	path := m.Path()
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return path, nil
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("speech: stat model: %w", err)
	}
	if m.url == "" {
		return "", fmt.Errorf("speech: model %s missing and no download url configured", path)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("speech: create models dir: %w", err)
	}

	m.logger.Info("downloading speech model", slog.String("url", m.url), slog.String("path", path))
	if err := m.download(ctx, path); err != nil {
		return "", err
	}
	m.logger.Info("speech model ready", slog.String("path", path))
	return path, nil
}

// download streams the model into a temp file and renames it into place so a
// partial download never looks like a usable model.
func (m *ModelManager) download(ctx context.Context, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return fmt.Errorf("speech: build download request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("speech: download model: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("speech: download model: HTTP %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(m.dir, ".model-*")
	if err != nil {
		return fmt.Errorf("speech: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return fmt.Errorf("speech: write model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("speech: fsync model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("speech: close model: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("speech: rename model: %w", err)
	}
	success = true
	return nil
}
