package booking

import "errors"

// ErrExistingBooking aborts the run when the operator already holds an
// appointment of the configured type and cancel_existing is disabled. The
// operator must cancel manually or enable cancel_existing.
var ErrExistingBooking = errors.New("existing booking present and cancel_existing is disabled")
