// Package file stores one file per entry under a directory. Expiration lives in
// the cache envelope, so the provider itself ignores ttl and never inspects data.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

var ErrInvalidID = errors.New("file: id is not a valid file name")

type Config struct {
	Dir    string
	Layout Layout      // default Basic{}
	Perm   fs.FileMode // default 0o600; directories get 0o700 plus the matching x bits
}

type Provider struct {
	dir    string
	layout Layout
	perm   fs.FileMode
}

var _ pr.Provider = (*Provider)(nil)

func New(cfg Config) (*Provider, error) {
	if cfg.Dir == "" {
		return nil, errors.New("file: Dir is required")
	}
	if cfg.Layout == nil {
		cfg.Layout = Basic{}
	}
	if cfg.Perm == 0 {
		cfg.Perm = 0o600
	}
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("file: create %s: %w", cfg.Dir, err)
	}
	return &Provider{dir: cfg.Dir, layout: cfg.Layout, perm: cfg.Perm}, nil
}

func (p *Provider) path(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	rel := p.layout.Path(id)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q maps outside the directory", ErrInvalidID, id)
	}
	return filepath.Join(p.dir, rel), nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	path, err := p.path(key)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set writes to a temp file in the target directory and renames it into place,
// so readers never see a partial entry.
func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	path, err := p.path(key)
	if err != nil {
		return false, err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return false, err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return false, err
	}
	name := tmp.Name()
	defer os.Remove(name) // no-op after a successful rename

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return false, err
	}
	if err := tmp.Chmod(p.perm); err != nil {
		_ = tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Rename(name, path); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	path, err := p.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes every file matching the layout's wildcard.
func (p *Provider) Clear(context.Context) error {
	matches, err := filepath.Glob(filepath.Join(p.dir, p.layout.Wildcard()))
	if err != nil {
		return err
	}
	var errs []error
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Provider) Close(context.Context) error { return nil }
