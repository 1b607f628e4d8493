package gmt

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoEntries is returned (wrapped) when the very first page of a fetch
// comes back empty. An empty first page means the service reported nothing
// for the requested range, which callers must distinguish from running out
// of data mid-range.
var ErrNoEntries = errors.New("no time entries found")

// AuthError means the login was rejected or the login response was
// unreadable. Fatal: nothing else can proceed without a session.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login failed: %v (is getmytime.com down?)", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RemoteError carries the error payload the service returned for a call.
type RemoteError struct {
	Op      string // service method, e.g. "createTimeEntry"
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: server error %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: server error: %s", e.Op, e.Message)
}

// TransportFailure is a network, timeout, or malformed-response failure for
// a single remote call.
type TransportFailure struct {
	Op  string
	Err error
}

func (e *TransportFailure) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *TransportFailure) Unwrap() error { return e.Err }

// ValidationReason identifies which pre-flight rule a candidate violated.
type ValidationReason string

const (
	ReasonEmptyComments          ValidationReason = "empty-comments"
	ReasonTopLevelCategory       ValidationReason = "top-level-category"
	ReasonDisallowedBucket       ValidationReason = "disallowed-bucket"
	ReasonSuggestAlternateBucket ValidationReason = "suggest-alternate-bucket"
	ReasonUnknownCustomer        ValidationReason = "unknown-customer"
	ReasonUnknownActivity        ValidationReason = "unknown-activity"
)

// ValidationError is a local, pre-flight rejection of a candidate entry.
// Recovered per row: the offending row passes through unchanged.
type ValidationError struct {
	Reason  ValidationReason
	Field   string // "customer" or "activity" for top-level category violations
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// MatchNotFoundError means id recovery after a successful create found no
// remote entry equal to the submitted one. The content is already remote;
// only the local id assignment is lost.
type MatchNotFoundError struct {
	Date     time.Time
	Customer string
	Activity string
}

func (e *MatchNotFoundError) Error() string {
	return fmt.Sprintf("unable to obtain id for entry %s %s %s",
		e.Date.Format("2006-01-02"), e.Customer, e.Activity)
}
