package hass

import "errors"

// Sentinel errors for Home Assistant WebSocket operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, hass.ErrAuthFailed) {
//	    // Token rejected; retrying is pointless
//	}
var (
	// ErrConnectionFailed indicates the WebSocket dial failed.
	ErrConnectionFailed = errors.New("hass: connection failed")

	// ErrAuthFailed indicates the access token was rejected.
	ErrAuthFailed = errors.New("hass: authentication failed")

	// ErrSubscribeFailed indicates the event subscription was refused.
	ErrSubscribeFailed = errors.New("hass: subscribe failed")

	// ErrBadMessage indicates a server message that cannot be decoded.
	ErrBadMessage = errors.New("hass: malformed server message")
)
