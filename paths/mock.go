package paths

import "github.com/icebergd/coreberg/iceberg"

// MockManager is an in-memory Manager test double: same path formulas
// as FilesystemManager, but EnsureLayout is a no-op so callers that
// don't have (or want) a real filesystem can still exercise path
// resolution.
type MockManager struct {
	BasePath string
}

func (m *MockManager) TableLocation() string { return m.BasePath }

func (m *MockManager) MetadataDir() string { return m.BasePath + "/metadata" }

func (m *MockManager) DataDir() string { return m.BasePath + "/data" }

func (m *MockManager) MetadataFilePath(version int) string {
	return m.MetadataDir() + "/" + iceberg.MetadataFileName(version)
}

func (m *MockManager) ManifestListPath(snapshotID int64) string {
	return m.MetadataDir() + "/snap-" + itoa(snapshotID) + "-manifest-list.avro"
}

func (m *MockManager) ManifestPath(manifestID string) string {
	return m.MetadataDir() + "/" + manifestID + ".avro"
}

func (m *MockManager) DataFilePath(partitionPath, filename string) string {
	if partitionPath == "" {
		return m.DataDir() + "/" + filename
	}
	return m.DataDir() + "/" + partitionPath + "/" + filename
}

func (m *MockManager) NamespacePath(namespace []string) string {
	path := ""
	for i, ns := range namespace {
		if i > 0 {
			path += "/"
		}
		path += ns
	}
	return path
}

func (m *MockManager) EnsureLayout() error { return nil }
