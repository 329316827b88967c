package utils

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadsyncpro/billing/internal/shared/errors"
)

type seatRequest struct {
	SeatCount int    `json:"seatCount" validate:"required,min=1"`
	Proration string `json:"proration" validate:"omitempty,oneof=IMMEDIATE NEXT_PERIOD"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(seatRequest{SeatCount: 3, Proration: "IMMEDIATE"}))

	err := ValidateStruct(seatRequest{SeatCount: 0, Proration: "LATER"})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	appErr := errors.GetAppError(err)
	assert.Contains(t, appErr.Details, "seatCount is required")
	assert.Contains(t, appErr.Details, "proration must be one of [IMMEDIATE NEXT_PERIOD]")
}

func TestBindingError_MalformedBody(t *testing.T) {
	err := BindingError(stderrors.New("unexpected EOF"))
	require.Error(t, err)

	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
	assert.Equal(t, "unexpected EOF", appErr.Details)
}
