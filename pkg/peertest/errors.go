package peertest

import "errors"

// Errors returned by the peertest package.
var (
	// ErrBusy is returned by RunTest when a test is already in flight.
	ErrBusy = errors.New("peertest: test already in progress")

	// ErrInvalidIPSize is returned when ip_size is not one of 0, 4, 16.
	ErrInvalidIPSize = errors.New("peertest: invalid ip_size, must be 0, 4, or 16")

	// ErrShortPayload is returned when a datagram is too short for its
	// declared ip_size.
	ErrShortPayload = errors.New("peertest: payload too short")
)
