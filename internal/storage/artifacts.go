package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a stored artifact does not exist on disk.
var ErrNotFound = errors.New("artifact not found")

// ErrUnsafePath is returned when a stored path would resolve outside the
// storage root.
var ErrUnsafePath = errors.New("artifact path escapes storage root")

// ArtifactManager owns the binary artifacts under a single storage root:
// the uploaded audio files and their derived spectrogram images. All paths
// it hands out and accepts are relative to the root, with forward slashes.
type ArtifactManager struct {
	root string
}

// NewArtifactManager creates the storage root if needed and returns a manager
// scoped to it.
func NewArtifactManager(root string) (*ArtifactManager, error) {
	if root == "" {
		return nil, errors.New("storage root must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &ArtifactManager{root: abs}, nil
}

// Root returns the absolute storage root path.
func (m *ArtifactManager) Root() string {
	return m.root
}

// Store writes data under the owner's folder and returns the path relative to
// the storage root. The filename keeps the epoch stem for display but carries
// a random suffix, so two uploads in the same second cannot collide.
func (m *ArtifactManager) Store(ownerFolder string, createdAt int64, data []byte, ext string) (string, error) {
	if ownerFolder == "" || ownerFolder == "." || ownerFolder == ".." ||
		ownerFolder != filepath.Base(ownerFolder) {
		return "", fmt.Errorf("%w: invalid owner folder %q", ErrUnsafePath, ownerFolder)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	dir := filepath.Join(m.root, ownerFolder)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating owner folder: %w", err)
	}

	name := fmt.Sprintf("%d_%s%s", createdAt, uuid.New().String()[:8], ext)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	return ownerFolder + "/" + name, nil
}

// DerivedPath returns the sibling path of the secondary artifact: same stem,
// .png extension.
func DerivedPath(artifactPath string) string {
	ext := filepath.Ext(artifactPath)
	return strings.TrimSuffix(artifactPath, ext) + ".png"
}

// StoreDerived writes the derived artifact next to an already stored primary
// artifact and returns its relative path.
func (m *ArtifactManager) StoreDerived(artifactPath string, data []byte) (string, error) {
	derived := DerivedPath(artifactPath)
	full, err := m.resolve(derived)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return "", fmt.Errorf("writing derived artifact: %w", err)
	}
	return derived, nil
}

// Read opens a stored artifact. The path is resolved safely inside the
// storage root; anything that escapes it is rejected.
func (m *ArtifactManager) Read(artifactPath string) (io.ReadCloser, error) {
	full, err := m.resolve(artifactPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening artifact: %w", err)
	}
	return f, nil
}

// Remove deletes the primary artifact and its derived sibling. Files that are
// already gone are not an error; Remove is idempotent.
func (m *ArtifactManager) Remove(artifactPath string) error {
	for _, rel := range []string{artifactPath, DerivedPath(artifactPath)} {
		full, err := m.resolve(rel)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing artifact: %w", err)
		}
	}
	return nil
}

// resolve turns a stored relative path into an absolute path, rejecting
// absolute inputs and any path that would land outside the storage root.
func (m *ArtifactManager) resolve(artifactPath string) (string, error) {
	if artifactPath == "" || filepath.IsAbs(artifactPath) || strings.HasPrefix(artifactPath, "/") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, artifactPath)
	}
	full := filepath.Join(m.root, filepath.FromSlash(artifactPath))
	rel, err := filepath.Rel(m.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, artifactPath)
	}
	return full, nil
}
