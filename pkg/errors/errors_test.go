package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrReasonRequired, "please provide a reason")
	assert.True(t, errors.Is(err, ErrReasonRequired))
	assert.False(t, errors.Is(err, ErrMissingEmail))
	assert.Equal(t, "please provide a reason", err.Message)
	assert.Equal(t, "rejection reason is required", ErrReasonRequired.Message)
}

func TestStoreKeepsCause(t *testing.T) {
	err := Store(sql.ErrConnDone, "failed to load admissions")
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.True(t, errors.Is(err, ErrStore))
}

func TestFromErrorNormalisesPlainErrors(t *testing.T) {
	err := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Nil(t, FromError(nil))

	typed := Clone(ErrConflict, "already decided")
	assert.Same(t, typed, FromError(typed))
}

func TestFromErrorMapsWellKnownCauses(t *testing.T) {
	notFound := FromError(fmt.Errorf("load college: %w", sql.ErrNoRows))
	assert.Equal(t, http.StatusNotFound, notFound.Status)
	assert.True(t, errors.Is(notFound, ErrNotFound))

	timeout := FromError(context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, timeout.Status)
	assert.Equal(t, "request timed out: context deadline exceeded", timeout.Error())
}
