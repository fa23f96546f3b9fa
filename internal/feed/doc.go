// Package feed decouples asynchronous record arrival from sequential
// pipeline processing in live-feed mode.
//
// The Dispatcher owns an unbounded FIFO queue and a single consumer
// goroutine. Producers never block on enqueue; the consumer processes
// records strictly in arrival order, one at a time. Ordering simplicity
// is favoured over throughput, which is acceptable at home-automation
// event rates.
//
// # Lifecycle
//
//	NotStarted -> Running -> Draining -> Stopped
//
// Construction has no side effects. The host drives the dispatcher
// through explicit entry points: Start spawns the consumer, HandleRecord
// enqueues one record, Shutdown enqueues a shutdown marker and waits for
// the consumer to drain up to it. Queue elements are a closed tagged
// variant (record or shutdown), not a sentinel object compared by
// identity.
//
// The Pipeline is the processor the dispatcher runs in live mode: it
// classifies one record, builds its batch and delivers it to the sink.
//
// # Fault Isolation
//
// A fault while processing one record, including a panic, is caught
// and logged; the loop continues with the next record. Per-record faults
// never escalate to pipeline failure. Once the consumer has exited,
// further enqueue attempts are dropped with a logged error instead of
// growing an orphaned queue.
package feed
