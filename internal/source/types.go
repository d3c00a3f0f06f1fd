package source

import (
	"context"
	"errors"
	"fmt"
)

// Result is the normalized output of one adapter fetch.
// Comments keep source order and are not deduplicated.
type Result struct {
	Title    string   `json:"title"`
	Comments []string `json:"comments"`
}

// Fetcher turns a locator into comments.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (*Result, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, locator string) (*Result, error)

// Fetch calls f(ctx, locator).
func (f FetcherFunc) Fetch(ctx context.Context, locator string) (*Result, error) {
	return f(ctx, locator)
}

// ErrorKind classifies a fetch failure for display. It never drives retries.
type ErrorKind string

const (
	KindNetwork      ErrorKind = "network"
	KindBlocked      ErrorKind = "blocked"
	KindMalformed    ErrorKind = "malformed"
	KindUnidentified ErrorKind = "unidentified"
)

// Transient reports whether the failure came from the platform side
// (network trouble, rate limiting, access control) rather than the locator.
func (k ErrorKind) Transient() bool {
	return k == KindNetwork || k == KindBlocked
}

// FetchError is returned by adapters for any failure while fetching a locator.
type FetchError struct {
	Platform Platform
	Kind     ErrorKind
	Message  string
	Err      error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError builds a FetchError.
func NewFetchError(p Platform, kind ErrorKind, err error, format string, args ...any) *FetchError {
	return &FetchError{
		Platform: p,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Err:      err,
	}
}

// ErrUnsupportedPlatform is matched by DispatchError.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// DispatchError means no adapter is registered for the locator's host.
type DispatchError struct {
	Locator string
}

func (e *DispatchError) Error() string {
	return "unsupported platform. Currently supporting Reddit, YouTube, and Instagram."
}

func (e *DispatchError) Is(target error) bool {
	return target == ErrUnsupportedPlatform
}

// KindOf returns the kind of a fetch failure, or "" for anything else.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
