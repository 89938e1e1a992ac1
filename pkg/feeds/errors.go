package feeds

import "errors"

// Client errors - the request referenced something that cannot resolve,
// no upstream work has happened.
var (
	ErrUnknownFeed     = errors.New("feed code does not resolve to a registered backend")
	ErrInvalidGlobalID = errors.New("identifier is not in <feedCode>:<rawId> form")
	ErrFeedMismatch    = errors.New("route and stop identifiers resolve to different feeds")
	ErrNotFound        = errors.New("no matching record")
)

// IsClientError reports whether the error is the caller's fault rather
// than an upstream failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownFeed) ||
		errors.Is(err, ErrInvalidGlobalID) ||
		errors.Is(err, ErrFeedMismatch)
}
