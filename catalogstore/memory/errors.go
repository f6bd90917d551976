package memory

import "github.com/icebergd/coreberg/pkg/errors"

// ErrPathExists is returned by Storage.PutIfAbsent when path is already
// occupied, matching the conditional-create semantics the commit
// engine requires
// of StorageBackend.put.
var ErrPathExists = errors.New(errors.CommonAlreadyExists, "path already exists", nil)
