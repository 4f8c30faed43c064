package curseforge

import "fmt"

// APIError is returned for non-success responses from the detail endpoint.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("api request failed: status %d from %s, body: %s", e.StatusCode, e.URL, e.Body)
	}
	return fmt.Sprintf("api request failed: status %d from %s", e.StatusCode, e.URL)
}

// NewAPIError creates a new APIError.
func NewAPIError(statusCode int, url, body string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		URL:        url,
		Body:       body,
	}
}
