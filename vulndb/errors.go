package vulndb

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrCVENotFound is terminal: the external database has no record for the
// requested id (or the body it returned could not be parsed). Retrying will
// not help.
var ErrCVENotFound = errors.New("cve not found in the external vulnerability database")

// ErrMalformedCVE signals that the external record is missing the minimum
// required fields (id + description) and could not be mapped.
var ErrMalformedCVE = errors.New("external cve record is missing required fields")

// TransportError covers network failures, timeouts and 5xx responses. These
// are the only errors worth retrying.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("could not reach the external vulnerability database: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// IsUnavailable reports whether an enrichment failure is non-fatal: the
// vulnerability keeps its prior state and the batch moves on.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrCVENotFound) || errors.Is(err, ErrMalformedCVE) || IsTransportError(err)
}
