package sink

import "errors"

// Sentinel errors for sink delivery operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, sink.ErrDeliveryRejected) {
//	    // Sink answered, but refused the payload
//	}
var (
	// ErrConnectionFailed indicates a connection to the sink could not be
	// established or maintained.
	ErrConnectionFailed = errors.New("sink: connection failed")

	// ErrDeliveryRejected indicates the sink returned a non-success
	// status for a delivered payload.
	ErrDeliveryRejected = errors.New("sink: delivery rejected")

	// ErrUnsupportedType indicates the configured sink type is not known.
	ErrUnsupportedType = errors.New("sink: unsupported sink type")
)
