// Package blob implements the attachment binary store on the local
// filesystem, with HMAC-signed, expiring download URLs standing in for the
// signed URLs a hosted object store would mint.
package blob

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadPath          = errors.New("storage path escapes the attachment root")
	ErrSignatureInvalid = errors.New("signature mismatch")
	ErrURLExpired       = errors.New("signed url expired")
)

// FSStore keeps attachment binaries under a root directory, mirroring the
// owner/task namespacing of the storage paths.
type FSStore struct {
	root    string
	secret  []byte
	baseURL string
}

// NewFSStore creates a store rooted at dir. secret signs download URLs;
// baseURL prefixes them (e.g. "http://localhost:8080/attachments").
func NewFSStore(dir string, secret []byte, baseURL string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating attachment root: %w", err)
	}
	return &FSStore{
		root:    dir,
		secret:  secret,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *FSStore) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", ErrBadPath
	}
	return filepath.Join(s.root, clean), nil
}

// Store writes the binary to disk. size is advisory; the reader is drained
// in full either way.
func (s *FSStore) Store(_ context.Context, path string, r io.Reader, _ int64) error {
	target, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating attachment directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating attachment file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return fmt.Errorf("writing attachment: %w", err)
	}
	return f.Close()
}

// Delete removes the binary from disk. Deleting a missing file is not an
// error; the record it backed may already be gone.
func (s *FSStore) Delete(_ context.Context, path string) error {
	target, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SignedURL mints an expiring URL of the form
// <base>/<path>?expires=<unix>&signature=<hex hmac-sha256>.
func (s *FSStore) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	if _, err := s.resolve(path); err != nil {
		return "", err
	}
	expires := time.Now().Add(ttl).Unix()
	sig := s.sign(path, expires)

	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", sig)
	return s.baseURL + "/" + path + "?" + q.Encode(), nil
}

// Verify checks a presented path/expiry/signature triple, as the serving
// side of SignedURL.
func (s *FSStore) Verify(path string, expires int64, signature string) error {
	if !hmac.Equal([]byte(s.sign(path, expires)), []byte(signature)) {
		return ErrSignatureInvalid
	}
	if time.Now().Unix() > expires {
		return ErrURLExpired
	}
	return nil
}

// Open returns the binary for a verified path.
func (s *FSStore) Open(path string) (io.ReadCloser, error) {
	target, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(target)
}

func (s *FSStore) sign(path string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%d", path, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
