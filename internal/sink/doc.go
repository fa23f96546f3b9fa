// Package sink delivers encoded metric batches to a time-series database.
//
// Two delivery paths are supported, selected by configuration:
//
//   - VictoriaMetrics batch import: one HTTP POST per flush to
//     /api/v1/import with a newline-joined JSON-lines payload. Failed
//     deliveries are retried with a doubling delay up to a fixed attempt
//     budget, then surfaced to the caller.
//   - Graphite-style socket: one TCP connection or UDP datagram per
//     flush carrying plaintext line protocol. Exactly one attempt; a
//     failed flush is dropped. This trades durability for back-pressure
//     avoidance: a live feed must never stall on network retries.
//
// Every delivery attempt owns and releases its own connection. There is
// no pooling or reuse across flushes.
//
// # Error Handling
//
// Use errors.Is against ErrConnectionFailed and ErrDeliveryRejected to
// distinguish connectivity faults from explicit sink rejections. Both
// sit behind the same retry ladder on the HTTP path.
//
// # Thread Safety
//
// Clients are safe for concurrent use, though the pipeline delivers
// sequentially by design.
package sink
