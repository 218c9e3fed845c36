package registry

import "fmt"

// TransferError reports a failed request: a transport failure, a dropped
// connection mid-body, or a non-success HTTP status.
type TransferError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Status     string
	Err        error
}

func (e *TransferError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Status)
	}
	return fmt.Sprintf("transfer from %s failed: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// ParseError reports a response body that is not valid JSON or does not
// match the catalog page schema.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
