package commit

import (
	"context"
	"encoding/json"

	"github.com/icebergd/coreberg/iceberg"
	"github.com/icebergd/coreberg/pkg/errors"
	"github.com/rs/zerolog"
)

// StorageBackend is the collaborator contract for raw
// object storage. PutIfAbsent must be a conditional "create if not
// exists" write so metadata-file persistence can participate in OCC at
// this layer.
type StorageBackend interface {
	Get(ctx context.Context, path string) (data []byte, found bool, err error)
	PutIfAbsent(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// CatalogPointerStore is the collaborator contract for
// the table's current-metadata-path pointer. CompareAndSwapPointer's
// atomicity is the catalog implementation's responsibility.
type CatalogPointerStore interface {
	LoadPointer(ctx context.Context, tableID string) (path string, version int, exists bool, err error)
	CompareAndSwapPointer(ctx context.Context, tableID string, expectedVersion int, newPath string, newVersion int) (ok bool, err error)
}

// Request is one commit attempt: an identifier, ordered requirements,
// and ordered updates. InitialMetadata seeds the builder
// when the table does not yet exist: assert-create commits build a
// full TableMetadata with iceberg.NewTableBuilder and pass it here
// rather than reconstructing it from an empty update set.
type Request struct {
	TableID         string
	Requirements    []Requirement
	Updates         []Update
	InitialMetadata *iceberg.TableMetadata
}

// Engine is the single serialization point for table mutations. One
// Engine instance is shared across commits to the same
// catalog; Locker scopes concurrency per table.
type Engine struct {
	Storage    StorageBackend
	Pointers   CatalogPointerStore
	Locker     Locker
	MaxRetries int
	Logger     zerolog.Logger
	// PathFor renders the storage path for a table's Nth metadata
	// version. Defaults to "<tableID>/metadata/v<N>.metadata.json".
	PathFor func(tableID string, version int) string
}

// NewEngine returns an Engine with the default retry budget (4).
func NewEngine(storage StorageBackend, pointers CatalogPointerStore, locker Locker, logger zerolog.Logger) *Engine {
	return &Engine{
		Storage:    storage,
		Pointers:   pointers,
		Locker:     locker,
		MaxRetries: 4,
		Logger:     logger,
		PathFor:    defaultPathFor,
	}
}

func defaultPathFor(tableID string, version int) string {
	return tableID + "/metadata/" + iceberg.MetadataFileName(version)
}

// Commit runs the load, validate, apply, rebase, persist cycle under
// an exclusive per-table lock, retrying
// rebase-safe conflicts up to MaxRetries times.
func (e *Engine) Commit(ctx context.Context, req Request) (iceberg.TableMetadata, error) {
	unlock := e.Locker.Lock(req.TableID)
	defer unlock()

	reqs := req.Requirements

	for attempt := 0; attempt <= e.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return iceberg.TableMetadata{}, ctx.Err()
		default:
		}

		path, version, exists, err := e.Pointers.LoadPointer(ctx, req.TableID)
		if err != nil {
			return iceberg.TableMetadata{}, errors.New(errors.CommonInternal, "failed to load catalog pointer", err).AddContext("table", req.TableID)
		}

		var meta iceberg.TableMetadata
		if exists {
			data, found, err := e.Storage.Get(ctx, path)
			if err != nil {
				return iceberg.TableMetadata{}, errors.New(errors.CommonInternal, "failed to read current metadata", err).AddContext("path", path)
			}
			if !found {
				return iceberg.TableMetadata{}, errors.Newf(errors.CommonInternal, "catalog pointer references missing metadata file %q", path)
			}
			if err := json.Unmarshal(data, &meta); err != nil {
				return iceberg.TableMetadata{}, errors.New(errors.CommonValidation, "cannot parse current metadata", err).AddContext("path", path)
			}
		}

		failing := checkRequirements(reqs, &meta, exists)
		if len(failing) == 0 {
			newMeta, err := e.apply(meta, exists, req)
			if err != nil {
				return iceberg.TableMetadata{}, err
			}

			newVersion := version + 1
			newPath := e.PathFor(req.TableID, newVersion)
			data, err := json.Marshal(newMeta)
			if err != nil {
				return iceberg.TableMetadata{}, errors.New(errors.CommonInternal, "failed to marshal new metadata", err)
			}
			if err := e.Storage.PutIfAbsent(ctx, newPath, data); err != nil {
				return iceberg.TableMetadata{}, errors.New(errors.CommonInternal, "failed to persist new metadata file", err).AddContext("path", newPath)
			}

			ok, err := e.Pointers.CompareAndSwapPointer(ctx, req.TableID, version, newPath, newVersion)
			if err != nil {
				return iceberg.TableMetadata{}, errors.New(ErrTransaction, "metadata written but pointer swap failed", err).AddContext("orphan_paths", []string{newPath})
			}
			if !ok {
				// Another writer advanced the pointer first; reload and
				// re-evaluate from the top rather than orphaning newPath
				// silently; it is simply unreferenced, not cleaned up
				// here, since the caller's storage GC owns that.
				e.Logger.Warn().Str("table", req.TableID).Int("attempt", attempt).Msg("pointer CAS lost race, retrying commit")
				continue
			}
			return newMeta, nil
		}

		allSafe := allUpdatesRebaseSafe(req.Updates)
		for _, f := range failing {
			if !allSafe || !f.Rebaseable() {
				return iceberg.TableMetadata{}, errors.New(ErrCommitConflict, "requirement failed and cannot be rebased", nil).AddContext("requirement", f.Kind())
			}
		}

		reqs = rebaseRequirements(reqs, &meta, exists)
		e.Logger.Warn().Str("table", req.TableID).Int("attempt", attempt).Msg("requirement failed, rebasing and retrying commit")
	}

	return iceberg.TableMetadata{}, errors.Newf(ErrRetryExhausted, "commit retry budget (%d) exhausted for table %q", e.MaxRetries, req.TableID)
}

func (e *Engine) apply(meta iceberg.TableMetadata, exists bool, req Request) (iceberg.TableMetadata, error) {
	base := meta
	if !exists && req.InitialMetadata != nil {
		base = *req.InitialMetadata
	}
	b := iceberg.NewBuilder(base)
	for _, u := range req.Updates {
		if err := u.Apply(b); err != nil {
			return iceberg.TableMetadata{}, errors.New(errors.CommonValidation, "update application failed", err).AddContext("update", u.Kind())
		}
	}
	return b.Build()
}

func checkRequirements(reqs []Requirement, meta *iceberg.TableMetadata, exists bool) []Requirement {
	var failing []Requirement
	for _, r := range reqs {
		if err := r.Check(meta, exists); err != nil {
			failing = append(failing, r)
		}
	}
	return failing
}

func allUpdatesRebaseSafe(updates []Update) bool {
	for _, u := range updates {
		if !u.RebaseSafe() {
			return false
		}
	}
	return true
}

func rebaseRequirements(reqs []Requirement, meta *iceberg.TableMetadata, exists bool) []Requirement {
	out := make([]Requirement, len(reqs))
	for i, r := range reqs {
		if err := r.Check(meta, exists); err != nil {
			out[i] = r.Rebase(meta, exists)
		} else {
			out[i] = r
		}
	}
	return out
}
