package core

import "errors"

// ErrHubClosed is returned when registering with a hub that has stopped.
var ErrHubClosed = errors.New("hub closed")
