package manifest

import (
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
)

var fileIDMu sync.Mutex

// newFileID returns a fresh ULID string. ulid.Make's default entropy
// source is not safe for concurrent use, so calls serialize on fileIDMu.
func newFileID() string {
	fileIDMu.Lock()
	defer fileIDMu.Unlock()
	return ulid.Make().String()
}

// NewManifestFileName names one manifest file written by a commit:
// "<ulid>-m<ordinal>.avro". The ULID keeps names unique across
// concurrent writers; the ordinal distinguishes manifests written by
// the same commit.
func NewManifestFileName(ordinal int) string {
	return fmt.Sprintf("%s-m%d.avro", newFileID(), ordinal)
}

// NewManifestListFileName names a snapshot's manifest-list file:
// "snap-<snapshot-id>-<attempt>-<ulid>.avro". Attempt is the commit
// retry ordinal, so a rebased retry never reuses a prior attempt's
// filename.
func NewManifestListFileName(snapshotID int64, attempt int) string {
	return fmt.Sprintf("snap-%d-%d-%s.avro", snapshotID, attempt, newFileID())
}
