package paths

import "testing"

func TestMockManager_ImplementsManager(t *testing.T) {
	var _ Manager = &MockManager{}
}

func TestMockManager_EnsureLayoutNoop(t *testing.T) {
	m := &MockManager{BasePath: "/mem/warehouse/sales/orders"}
	if err := m.EnsureLayout(); err != nil {
		t.Fatalf("expected no-op success, got %v", err)
	}
	if m.MetadataFilePath(1) != "/mem/warehouse/sales/orders/metadata/v1.metadata.json" {
		t.Fatalf("unexpected metadata file path: %s", m.MetadataFilePath(1))
	}
}
