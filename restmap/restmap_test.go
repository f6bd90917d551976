package restmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	coreerrors "github.com/icebergd/coreberg/pkg/errors"
)

func TestResolve_NotFoundDefaultsToTable(t *testing.T) {
	err := coreerrors.New(coreerrors.CommonNotFound, "table missing", nil)
	m := Resolve(err)
	assert.Equal(t, "NoSuchTableException", m.Exception)
	assert.Equal(t, 404, m.HTTPStatus)
}

func TestResolve_NotFoundNamespace(t *testing.T) {
	err := coreerrors.New(coreerrors.CommonNotFound, "namespace missing", nil).AddContext("resource", "namespace")
	m := Resolve(err)
	assert.Equal(t, "NoSuchNamespaceException", m.Exception)
	assert.Equal(t, 404, m.HTTPStatus)
}

func TestResolve_NotFoundView(t *testing.T) {
	err := coreerrors.New(coreerrors.CommonNotFound, "view missing", nil).AddContext("resource", "view")
	m := Resolve(err)
	assert.Equal(t, "NoSuchViewException", m.Exception)
}

func TestResolve_AlreadyExists(t *testing.T) {
	err := coreerrors.New(coreerrors.CommonAlreadyExists, "table exists", nil)
	m := Resolve(err)
	assert.Equal(t, "AlreadyExistsException", m.Exception)
	assert.Equal(t, 409, m.HTTPStatus)
}

func TestResolve_CommitConflict(t *testing.T) {
	err := coreerrors.New(coreerrors.MustNewCode("commit.conflict"), "requirement failed", nil)
	m := Resolve(err)
	assert.Equal(t, "CommitFailedException", m.Exception)
	assert.Equal(t, 409, m.HTTPStatus)
}

func TestResolve_CommitRetryExhausted(t *testing.T) {
	err := coreerrors.New(coreerrors.MustNewCode("commit.retry_exhausted"), "retries exhausted", nil)
	m := Resolve(err)
	assert.Equal(t, 409, m.HTTPStatus)
}

func TestResolve_CommitTransactionIsServiceUnavailable(t *testing.T) {
	err := coreerrors.New(coreerrors.MustNewCode("commit.transaction_error"), "pointer swap failed", nil)
	m := Resolve(err)
	assert.Equal(t, 503, m.HTTPStatus)
}

func TestResolve_ForbiddenAndUnauthorized(t *testing.T) {
	f := coreerrors.New(coreerrors.CommonForbidden, "no permission", nil)
	u := coreerrors.New(coreerrors.CommonUnauthorized, "no identity", nil)
	assert.Equal(t, 403, Resolve(f).HTTPStatus)
	assert.Equal(t, 401, Resolve(u).HTTPStatus)
}

func TestResolve_ValidationIsBadRequest(t *testing.T) {
	err := coreerrors.New(coreerrors.CommonValidation, "bad schema", nil)
	m := Resolve(err)
	assert.Equal(t, "BadRequestException", m.Exception)
	assert.Equal(t, 400, m.HTTPStatus)
}

func TestResolve_UnregisteredCodeFallsBackToInternal(t *testing.T) {
	err := coreerrors.New(coreerrors.MustNewCode("somepkg.unregistered"), "mystery failure", nil)
	m := Resolve(err)
	assert.Equal(t, "ServerErrorException", m.Exception)
	assert.Equal(t, 500, m.HTTPStatus)
}

func TestResolve_NonCoreErrorFallsBackToInternal(t *testing.T) {
	m := Resolve(errors.New("plain stdlib error"))
	assert.Equal(t, 500, m.HTTPStatus)
}

func TestRegisterCategory_AllowsCallerExtension(t *testing.T) {
	code := coreerrors.MustNewCode("testpkg.custom_not_found")
	RegisterCategory(code, NotFound)
	err := coreerrors.New(code, "custom not found", nil)
	assert.Equal(t, 404, Resolve(err).HTTPStatus)
}
