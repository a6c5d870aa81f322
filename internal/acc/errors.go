package acc

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the upstream API. The string form keeps
// the status code so substring-based retry classification keeps working.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is an APIError with a 404 status.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
