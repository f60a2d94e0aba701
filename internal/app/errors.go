package app

import "fmt"

// DomainError is a service-level failure with an HTTP status and a stable
// machine-readable code. The HTTP layer serializes it as-is; anything else
// that bubbles up becomes a generic 500.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{Status: status, Code: code, Message: message, Details: details}
}
