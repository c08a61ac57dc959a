package response

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessResponse(t *testing.T) {
	t.Run("without data", func(t *testing.T) {
		resp := SuccessResponse("Operation completed.")

		assert.Equal(t, StatusSuccess, resp.Status)
		assert.Equal(t, "Operation completed.", resp.Message)
		assert.Nil(t, resp.Data)
	})

	t.Run("with data", func(t *testing.T) {
		data := map[string]string{"short_code": "k3F9p"}

		resp := SuccessResponse("Operation completed.", data)

		assert.Equal(t, StatusSuccess, resp.Status)
		assert.Equal(t, data, resp.Data)
	})
}

func TestValidationErrorResponse(t *testing.T) {
	t.Run("non-validation error", func(t *testing.T) {
		resp := ValidationErrorResponse(errors.New("unknown error"))

		assert.Equal(t, BadRequestResponse, resp)
	})

	t.Run("validation errors become details", func(t *testing.T) {
		validate := validator.New()

		err := validate.Struct(struct {
			URL string `validate:"required,url"`
		}{})
		require.Error(t, err)

		resp := ValidationErrorResponse(err)

		assert.Equal(t, StatusError, resp.Status)
		assert.Equal(t, "Validation Error", resp.Error)
		assert.Len(t, resp.Details, 1)
	})
}
