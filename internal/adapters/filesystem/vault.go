package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"noteferry/internal/ports"
)

// Vault implements ports.Vault on a local directory of markdown notes.
type Vault struct {
	root string
}

// Ensure Vault implements the port
var _ ports.Vault = (*Vault)(nil)

// NewVault creates a vault rooted at path, expanding a leading ~.
func NewVault(path string) *Vault {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}
	return &Vault{root: path}
}

// Root returns the absolute vault directory.
func (v *Vault) Root() string {
	return v.root
}

// abs resolves a vault-relative path, rejecting escapes above the root.
func (v *Vault) abs(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("path %q escapes the vault", path)
	}
	return filepath.Join(v.root, clean), nil
}

// Create writes a new note, failing with fs.ErrExist when the path is
// already taken.
func (v *Vault) Create(ctx context.Context, path, content string) (ports.NoteRef, error) {
	if err := ctx.Err(); err != nil {
		return ports.NoteRef{}, err
	}
	full, err := v.abs(path)
	if err != nil {
		return ports.NoteRef{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return ports.NoteRef{}, fmt.Errorf("failed to create parent directory: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return ports.NoteRef{}, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return ports.NoteRef{}, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return ports.NoteRef{Path: path}, nil
}

// Modify rewrites an existing note in place.
func (v *Vault) Modify(ctx context.Context, ref ports.NoteRef, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := v.abs(ref.Path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(full); err != nil {
		return fmt.Errorf("failed to modify %s: %w", ref.Path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to modify %s: %w", ref.Path, err)
	}
	return nil
}

// Read returns a note's content.
func (v *Vault) Read(ctx context.Context, ref ports.NoteRef) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := v.abs(ref.Path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", ref.Path, err)
	}
	return string(data), nil
}

// GetByPath resolves a path to a handle, or nil when absent.
func (v *Vault) GetByPath(ctx context.Context, path string) (*ports.NoteRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := v.abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, nil
	}
	return &ports.NoteRef{Path: path}, nil
}

// ListNotes enumerates every markdown note under the root, skipping
// hidden directories.
func (v *Vault) ListNotes(ctx context.Context) ([]ports.NoteInfo, error) {
	var notes []ports.NoteInfo

	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != v.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		rel, err := filepath.Rel(v.root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		notes = append(notes, ports.NoteInfo{
			Path:  filepath.ToSlash(rel),
			Mtime: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate vault: %w", err)
	}
	return notes, nil
}
