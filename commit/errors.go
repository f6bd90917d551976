package commit

import "github.com/icebergd/coreberg/pkg/errors"

var (
	// ErrCommitConflict is returned when a requirement failed and could
	// not be rebased. The caller is expected to
	// re-read and retry.
	ErrCommitConflict = errors.MustNewCode("commit.conflict")
	// ErrRetryExhausted is returned when the rebase retry budget (≤4)
	// is spent without a clean apply.
	ErrRetryExhausted = errors.MustNewCode("commit.retry_exhausted")
	// ErrTransaction is returned when the new metadata file was
	// persisted but the pointer swap failed with an error; the caller
	// must clean up the orphan paths carried on the error (the engine
	// records the new metadata file's path there).
	ErrTransaction = errors.MustNewCode("commit.transaction_error")
)

// OrphanPaths reports the storage paths a CommitTransactionError left
// behind for caller-side cleanup, if any were recorded on err.
func OrphanPaths(err error) []string {
	e, ok := err.(*errors.Error)
	if !ok {
		return nil
	}
	paths, _ := e.GetContext("orphan_paths").([]string)
	return paths
}
