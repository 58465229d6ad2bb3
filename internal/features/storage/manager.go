package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"go-classhub/internal/common/apperr"
	"go-classhub/internal/config"

	"github.com/google/uuid"
)

// AreaManager owns the two disjoint directory namespaces of the upload
// lifecycle: a flat quarantine area for not-yet-reviewed uploads and a
// published area partitioned by class id. The approval workflow never
// touches paths directly; it only speaks object keys.
type AreaManager interface {
	QuarantinePut(r io.Reader, declaredName string) (objectKey string, size int64, err error)
	QuarantineOpen(objectKey string) (io.ReadSeekCloser, error)
	QuarantineDelete(objectKey string) error
	QuarantineExists(objectKey string) bool
	Promote(objectKey, classID string) (publishedKey string, err error)
	PublishedOpen(classID, publishedKey string) (io.ReadSeekCloser, error)
	QuarantineKeys() ([]string, error)
	PublishedKeys() (map[string][]string, error)
}

type DiskAreaManager struct {
	quarantineDir string
	publishedDir  string
}

// NewAreaManager creates both area roots if they do not exist.
func NewAreaManager(cfg *config.Config) (AreaManager, error) {
	for _, dir := range []string{cfg.QuarantineDir, cfg.PublishedDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, apperr.IOFailure("creating storage area "+dir, err)
		}
	}
	return &DiskAreaManager{
		quarantineDir: cfg.QuarantineDir,
		publishedDir:  cfg.PublishedDir,
	}, nil
}

// QuarantinePut streams the payload into the quarantine area under a
// collision-resistant key and returns the key. Pattern: temp file, write,
// fsync, atomic rename. On any failure the temp file is removed and no key
// exists, so the caller must not create a database row.
func (m *DiskAreaManager) QuarantinePut(r io.Reader, declaredName string) (string, int64, error) {
	objectKey := uuid.NewString() + "_" + sanitizeName(declaredName)
	fullPath := filepath.Join(m.quarantineDir, objectKey)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", 0, apperr.IOFailure("creating quarantine temp file", err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", 0, apperr.IOFailure("writing quarantine object", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", 0, apperr.IOFailure("syncing quarantine object", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", 0, apperr.IOFailure("closing quarantine object", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", 0, apperr.IOFailure("finalizing quarantine object", err)
	}

	return objectKey, size, nil
}

func (m *DiskAreaManager) QuarantineOpen(objectKey string) (io.ReadSeekCloser, error) {
	path, err := m.quarantinePath(objectKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("quarantine object not found: " + objectKey)
		}
		return nil, apperr.IOFailure("opening quarantine object", err)
	}
	return f, nil
}

// QuarantineDelete removes the object. Absence is not an error.
func (m *DiskAreaManager) QuarantineDelete(objectKey string) error {
	path, err := m.quarantinePath(objectKey)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperr.IOFailure("deleting quarantine object", err)
	}
	return nil
}

func (m *DiskAreaManager) QuarantineExists(objectKey string) bool {
	path, err := m.quarantinePath(objectKey)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}

// Promote moves the object from quarantine into the class partition of the
// published area. The destination key equals the quarantine key, which makes
// a retry after a failed database commit safe: when the source is already
// gone but the destination exists, the earlier move won and the same key is
// returned.
func (m *DiskAreaManager) Promote(objectKey, classID string) (string, error) {
	srcPath, err := m.quarantinePath(objectKey)
	if err != nil {
		return "", err
	}

	classDir := filepath.Join(m.publishedDir, sanitizeName(classID))
	if err := os.MkdirAll(classDir, 0o750); err != nil {
		return "", apperr.IOFailure("creating class partition "+classID, err)
	}
	dstPath := filepath.Join(classDir, objectKey)

	if err := os.Rename(srcPath, dstPath); err != nil {
		if os.IsNotExist(err) {
			if _, statErr := os.Stat(dstPath); statErr == nil {
				// Already promoted by an earlier attempt.
				return objectKey, nil
			}
			return "", apperr.NotFound("quarantine object vanished: " + objectKey)
		}
		return "", apperr.IOFailure("promoting object "+objectKey, err)
	}

	return objectKey, nil
}

func (m *DiskAreaManager) PublishedOpen(classID, publishedKey string) (io.ReadSeekCloser, error) {
	path, err := m.publishedPath(classID, publishedKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("published object not found: " + publishedKey)
		}
		return nil, apperr.IOFailure("opening published object", err)
	}
	return f, nil
}

func (m *DiskAreaManager) publishedPath(classID, publishedKey string) (string, error) {
	if !validKey(publishedKey) || !validKey(classID) {
		return "", apperr.Validation("invalid object key")
	}
	return filepath.Join(m.publishedDir, sanitizeName(classID), publishedKey), nil
}

// QuarantineKeys lists every object currently held in quarantine.
func (m *DiskAreaManager) QuarantineKeys() ([]string, error) {
	entries, err := os.ReadDir(m.quarantineDir)
	if err != nil {
		return nil, apperr.IOFailure("listing quarantine area", err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		keys = append(keys, e.Name())
	}
	return keys, nil
}

// PublishedKeys lists published objects grouped by class partition.
func (m *DiskAreaManager) PublishedKeys() (map[string][]string, error) {
	partitions, err := os.ReadDir(m.publishedDir)
	if err != nil {
		return nil, apperr.IOFailure("listing published area", err)
	}
	out := make(map[string][]string)
	for _, p := range partitions {
		if !p.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(m.publishedDir, p.Name()))
		if err != nil {
			return nil, apperr.IOFailure("listing class partition "+p.Name(), err)
		}
		for _, f := range files {
			if !f.IsDir() {
				out[p.Name()] = append(out[p.Name()], f.Name())
			}
		}
	}
	return out, nil
}

func (m *DiskAreaManager) quarantinePath(objectKey string) (string, error) {
	if !validKey(objectKey) {
		return "", apperr.Validation("invalid object key")
	}
	return filepath.Join(m.quarantineDir, objectKey), nil
}

// sanitizeName strips path components and whitespace from a client-supplied
// name before it becomes part of an object key.
func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == ".." || name == "/" || name == "" {
		return "unnamed"
	}
	return name
}

func validKey(key string) bool {
	return key != "" && key == filepath.Base(key) && key != "." && key != ".."
}
