package discro

import "errors"

// ErrClosed is returned from waiting operations
// when the [Publisher] has been closed
// and there is no unobserved value left to deliver.
//
// It is a normal termination signal:
// no further value can ever be published.
var ErrClosed = errors.New("disconnected from publisher")
