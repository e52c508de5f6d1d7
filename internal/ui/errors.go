package ui

import (
	"errors"
	"fmt"

	"github.com/idilsaglam/tada/internal/model"
)

// ErrorText turns an error into the short message shown to the user.
// Server payloads that failed to parse all read "unexpected response".
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	var (
		verr   *model.ValidationError
		schema *model.SchemaError
		apiErr *model.APIError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &schema):
		return "unexpected response from server"
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("server answered %d", apiErr.Status)
	}
	return err.Error()
}
