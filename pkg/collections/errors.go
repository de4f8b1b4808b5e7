package collections

import (
	"errors"
	"fmt"
)

// ErrCollectionRequired is returned when saving a request without a target
// collection.
var ErrCollectionRequired = errors.New("collection ID is required to save a request")

// APIError is a non-2xx answer from the store API.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Status)
}

// errorBody is the JSON error document the store API returns.
type errorBody struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}
