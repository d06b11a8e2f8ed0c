package errors

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsKind(t *testing.T) {
	err := Clone(ErrApproverNotFound, "department head not found")
	assert.True(t, errors.Is(err, ErrApproverNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "department head not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Equal(t, "required approver not found", ErrApproverNotFound.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
	assert.Nil(t, FromError(nil))
}

func TestInternalHidesCause(t *testing.T) {
	appErr := Internal(errors.New("pq: connection refused"), "failed to create booking")
	assert.Equal(t, "failed to create booking", appErr.Message)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}
