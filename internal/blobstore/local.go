package blobstore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultPublicPrefix is the URL path under which local blobs are served.
const DefaultPublicPrefix = "/media"

// LocalStore keeps blobs on the local filesystem. References are URL paths
// ({publicPrefix}/{key}) that the HTTP layer serves through Open.
type LocalStore struct {
	root         string
	publicPrefix string
	newID        func() string
}

// NewLocalStore creates root if needed.
func NewLocalStore(root, publicPrefix string) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("local storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	if publicPrefix == "" {
		publicPrefix = DefaultPublicPrefix
	}
	return &LocalStore{
		root:         root,
		publicPrefix: "/" + strings.Trim(publicPrefix, "/"),
		newID:        uuid.NewString,
	}, nil
}

// PublicPrefix returns the URL path prefix of references produced by Store.
func (s *LocalStore) PublicPrefix() string {
	return s.publicPrefix
}

// Store writes data to a temp file and renames it into place so readers never
// observe a partial blob.
func (s *LocalStore) Store(ctx context.Context, data []byte, loc Location) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := ObjectKey(loc, s.newID())
	if err != nil {
		return "", err
	}

	absPath := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("create blob directory: %w", err)
	}

	tmp := absPath + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("commit blob: %w", err)
	}

	ref := s.publicPrefix + "/" + key
	log.Debug().Str("ref", ref).Int("size", len(data)).Msg("Blob stored locally")
	return ref, nil
}

// Open reads the blob behind ref.
func (s *LocalStore) Open(ctx context.Context, ref string) ([]byte, error) {
	absPath, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// Delete removes the blob behind ref. Deleting a missing blob is not an error.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	absPath, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// resolve maps a reference to a path inside root, rejecting traversal.
func (s *LocalStore) resolve(ref string) (string, error) {
	if !strings.HasPrefix(ref, s.publicPrefix+"/") {
		return "", fmt.Errorf("%w: reference %q is outside %s", ErrNotFound, ref, s.publicPrefix)
	}
	key := strings.TrimPrefix(ref, s.publicPrefix+"/")
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || cleaned != "/"+key {
		return "", fmt.Errorf("%w: invalid reference %q", ErrNotFound, ref)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}
