package mediastore

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Store is a key-addressed blob store rooted at the configured media
// directory. Keys are slash-separated relative paths ("pdfs/x.pdf",
// "page_images/my-book/my-book_page_1.png"). The store only does path
// bookkeeping; durability is the filesystem's problem.
type Store struct {
	root string
}

func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("media root is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create media root: %s", root)
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string {
	return s.root
}

// Abs resolves a key to an absolute path under the media root. Keys that
// escape the root are rejected.
func (s *Store) Abs(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", errors.Errorf("invalid media key: %q", key)
	}
	return filepath.Join(s.root, cleaned), nil
}

// Save writes the reader's contents to the given key, creating parent
// directories as needed.
func (s *Store) Save(key string, r io.Reader) error {
	path, err := s.Abs(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WithStack(err)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(f.Close())
}

// Create opens a new file for writing at the given key, creating parent
// directories as needed. The caller owns closing it.
func (s *Store) Create(key string) (*os.File, error) {
	path, err := s.Abs(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.WithStack(err)
	}
	f, err := os.Create(path)
	return f, errors.WithStack(err)
}

// Open opens the file at the given key for reading.
func (s *Store) Open(key string) (*os.File, error) {
	path, err := s.Abs(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	return f, errors.WithStack(err)
}

// Exists reports whether a regular file exists at the given key.
func (s *Store) Exists(key string) bool {
	path, err := s.Abs(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Remove deletes the file at the given key. Missing files are not an error.
func (s *Store) Remove(key string) error {
	path, err := s.Abs(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}
