package sqlite

import "github.com/icebergd/coreberg/pkg/errors"

// catalogstore-specific error codes.
var (
	ErrDatabaseOpenFailed = errors.MustNewCode("catalogstore.database_open_failed")
	ErrDatabaseInitFailed = errors.MustNewCode("catalogstore.database_init_failed")
	ErrDatabaseExecFailed = errors.MustNewCode("catalogstore.database_exec_failed")
	ErrDatabaseScanFailed = errors.MustNewCode("catalogstore.database_scan_failed")
)
