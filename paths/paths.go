// Package paths resolves the storage-relative paths a table's
// metadata, manifests, and data files live at.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/icebergd/coreberg/iceberg"
	"github.com/icebergd/coreberg/pkg/errors"
)

// ErrDirectoryCreationFailed is returned by EnsureLayout when a
// required directory cannot be created.
var ErrDirectoryCreationFailed = errors.MustNewCode("paths.directory_creation_failed")

// Manager resolves the paths the storage backend is addressed by,
// given a table's root location. One Manager instance is scoped to
// one table, since table metadata defines "location" per table.
type Manager interface {
	// TableLocation returns the table's root URI/path, as stored in
	// TableMetadata.Location.
	TableLocation() string
	// MetadataDir returns "<location>/metadata".
	MetadataDir() string
	// DataDir returns "<location>/data".
	DataDir() string
	// MetadataFilePath returns "<location>/metadata/v<N>.metadata.json".
	MetadataFilePath(version int) string
	// ManifestListPath returns the path for a snapshot's manifest-list
	// file, named by the snapshot's own id to keep filenames unique
	// across concurrent snapshots.
	ManifestListPath(snapshotID int64) string
	// ManifestPath returns the path for one manifest file, named by a
	// caller-supplied unique id (manifest naming is the writer's
	// choice as long as it's unique within the table).
	ManifestPath(manifestID string) string
	// DataFilePath returns the path for one data file under a
	// caller-chosen partition-relative subpath and filename.
	DataFilePath(partitionPath, filename string) string
	// NamespacePath joins a namespace's path segments the way the
	// backing object store expects (forward-slash separated).
	NamespacePath(namespace []string) string
	// EnsureLayout creates metadata/ and data/ under the table's
	// location (for filesystem-backed StorageBackend implementations;
	// object-store-backed ones can treat this as a no-op).
	EnsureLayout() error
}

// FilesystemManager implements Manager against a local (or
// local-semantics NFS/mounted) directory tree.
type FilesystemManager struct {
	location string
}

var _ Manager = (*FilesystemManager)(nil)

// NewFilesystemManager returns a Manager rooted at location
// (TableMetadata.Location).
func NewFilesystemManager(location string) *FilesystemManager {
	return &FilesystemManager{location: strings.TrimRight(location, "/")}
}

func (m *FilesystemManager) TableLocation() string { return m.location }

func (m *FilesystemManager) MetadataDir() string {
	return filepath.Join(m.location, "metadata")
}

func (m *FilesystemManager) DataDir() string {
	return filepath.Join(m.location, "data")
}

func (m *FilesystemManager) MetadataFilePath(version int) string {
	return filepath.Join(m.MetadataDir(), iceberg.MetadataFileName(version))
}

func (m *FilesystemManager) ManifestListPath(snapshotID int64) string {
	return filepath.Join(m.MetadataDir(), "snap-"+itoa(snapshotID)+"-manifest-list.avro")
}

func (m *FilesystemManager) ManifestPath(manifestID string) string {
	return filepath.Join(m.MetadataDir(), manifestID+".avro")
}

func (m *FilesystemManager) DataFilePath(partitionPath, filename string) string {
	if partitionPath == "" {
		return filepath.Join(m.DataDir(), filename)
	}
	return filepath.Join(m.DataDir(), partitionPath, filename)
}

func (m *FilesystemManager) NamespacePath(namespace []string) string {
	return strings.Join(namespace, "/")
}

func (m *FilesystemManager) EnsureLayout() error {
	for _, dir := range []string{m.location, m.MetadataDir(), m.DataDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.New(ErrDirectoryCreationFailed, "failed to create table directory", err).AddContext("directory", dir)
		}
	}
	return nil
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
