// Package restmap maps the core's error taxonomy onto the Iceberg
// REST catalog's exception names and HTTP status codes. It is a pure
// lookup table; the HTTP server wrapping it lives elsewhere.
package restmap

import (
	"github.com/icebergd/coreberg/pkg/errors"
)

// Category is a semantic error category, independent of which package
// produced the error.
type Category string

const (
	NotFound             Category = "not_found"
	AlreadyExists        Category = "already_exists"
	NotEmpty             Category = "not_empty"
	Validation           Category = "validation"
	MetadataParse        Category = "metadata_parse"
	CommitConflict       Category = "commit_conflict"
	CommitRetryExhausted Category = "commit_retry_exhausted"
	CommitTransaction    Category = "commit_transaction"
	StorageIO            Category = "storage_io"
	Unauthorized         Category = "unauthorized"
	Forbidden            Category = "forbidden"
	Transform            Category = "transform"
	Internal             Category = "internal"
)

// ResourceKind distinguishes which kind of resource a NotFound or
// AlreadyExists error concerns, since the REST exception name differs
// (NoSuchNamespaceException vs. NoSuchTableException). Callers record
// this on the *errors.Error via AddContext("resource", ...).
type ResourceKind string

const (
	ResourceNamespace ResourceKind = "namespace"
	ResourceTable      ResourceKind = "table"
	ResourceView       ResourceKind = "view"
)

// Mapping is the REST-facing rendering of an error Category.
type Mapping struct {
	Exception  string
	HTTPStatus int
}

// categoryByCode associates specific error codes from across this
// module's packages with their semantic categories. Entries are
// listed here by code string (RegisterCategory adds more), not
// inferred at runtime, since a code's category is a semantic fact
// about the package that defined it, not something derivable from the
// code string alone.
var categoryByCode = map[string]Category{
	errors.CommonNotFound.String():      NotFound,
	errors.CommonAlreadyExists.String(): AlreadyExists,
	errors.CommonValidation.String():    Validation,
	errors.CommonInvalidInput.String():  Validation,
	errors.CommonUnauthorized.String():  Unauthorized,
	errors.CommonForbidden.String():     Forbidden,
	errors.CommonConflict.String():      CommitConflict,
	errors.CommonTimeout.String():       StorageIO,
	errors.CommonUnsupported.String():   Validation,
	errors.CommonInternal.String():      Internal,

	"commit.requirement_failed":  CommitConflict,
	"commit.conflict":            CommitConflict,
	"commit.retry_exhausted":     CommitRetryExhausted,
	"commit.transaction_error":   CommitTransaction,

	"iceberg.invalid_metadata":       MetadataParse,
	"iceberg.invalid_builder_state":  Validation,
	"iceberg.bad_transform":          Transform,
	"iceberg.unknown_type":           MetadataParse,
	"iceberg.field_conflict":         Validation,

	"manifest.empty_manifest":          Validation,
	"manifest.decode_failed":           MetadataParse,
	"manifest.unsupported_stat_type":   Validation,

	"avro.block_count_invalid":        MetadataParse,
	"avro.bad_magic":                  MetadataParse,
	"avro.sync_mismatch":              MetadataParse,
	"avro.varint_too_long":            MetadataParse,
	"avro.buffer_too_short":           MetadataParse,
	"avro.union_branch_out_of_range":  MetadataParse,
	"avro.fixed_size_mismatch":        MetadataParse,

	"catalogstore.database_open_failed": StorageIO,
	"catalogstore.database_init_failed": StorageIO,
	"catalogstore.database_exec_failed": StorageIO,
	"catalogstore.database_scan_failed": StorageIO,

	"variant.invalid_config":         Validation,
	"variant.unsupported_operator":   Validation,
}

// RegisterCategory lets a package associate one of its own error codes
// with a category at init time, for codes not already covered above
// (e.g. a new collaborator implementation's storage errors).
func RegisterCategory(code errors.Code, category Category) {
	categoryByCode[code.String()] = category
}

// mappingByCategory holds the default HTTP rendering for a category.
// Resolve below refines NotFound per ResourceKind; AlreadyExists keeps
// AlreadyExistsException for every resource kind.
var mappingByCategory = map[Category]Mapping{
	NotFound:             {Exception: "NoSuchTableException", HTTPStatus: 404},
	AlreadyExists:        {Exception: "AlreadyExistsException", HTTPStatus: 409},
	NotEmpty:             {Exception: "NamespaceNotEmptyException", HTTPStatus: 409},
	Validation:           {Exception: "BadRequestException", HTTPStatus: 400},
	MetadataParse:        {Exception: "BadRequestException", HTTPStatus: 400},
	CommitConflict:       {Exception: "CommitFailedException", HTTPStatus: 409},
	CommitRetryExhausted: {Exception: "CommitFailedException", HTTPStatus: 409},
	CommitTransaction:    {Exception: "CommitStateUnknownException", HTTPStatus: 503},
	StorageIO:            {Exception: "ServiceUnavailableException", HTTPStatus: 503},
	Unauthorized:         {Exception: "NotAuthorizedException", HTTPStatus: 401},
	Forbidden:            {Exception: "ForbiddenException", HTTPStatus: 403},
	Transform:            {Exception: "BadRequestException", HTTPStatus: 400},
	Internal:             {Exception: "ServerErrorException", HTTPStatus: 500},
}

// Classify returns the category associated with err's code, or
// Internal if err isn't a *errors.Error or its code is unregistered.
func Classify(err error) Category {
	code, ok := errors.CodeOf(err)
	if !ok {
		return Internal
	}
	if cat, ok := categoryByCode[code.String()]; ok {
		return cat
	}
	return Internal
}

// Resolve maps err to its REST exception name and HTTP status,
// refining NotFound/AlreadyExists by the "resource" context key when
// present (NoSuchNamespaceException vs. NoSuchTableException,
// AlreadyExistsException covers both namespaces and tables already).
func Resolve(err error) Mapping {
	cat := Classify(err)
	m := mappingByCategory[cat]
	if m == (Mapping{}) {
		return mappingByCategory[Internal]
	}

	if cat == NotFound {
		if e, ok := err.(*errors.Error); ok {
			switch ResourceKind(asString(e.GetContext("resource"))) {
			case ResourceNamespace:
				m.Exception = "NoSuchNamespaceException"
			case ResourceView:
				m.Exception = "NoSuchViewException"
			default:
				m.Exception = "NoSuchTableException"
			}
		}
	}
	return m
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
