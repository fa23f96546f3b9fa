// Package hass provides the Home Assistant WebSocket live event source.
//
// This package manages:
//   - Connection to the Home Assistant WebSocket API
//   - Token authentication handshake
//   - Subscription to state_changed events
//   - Decoding events into change records
//   - Reconnection with exponential backoff
//
// # Protocol
//
// The WebSocket API opens with an auth_required message; the client
// answers with its long-lived access token and waits for auth_ok. It
// then subscribes to state_changed events and receives one event
// message per entity update until the connection drops.
//
// # Usage
//
//	client := hass.New(cfg.Source.Hass, logger)
//	err := client.Run(ctx, func(rec metric.ChangeRecord) error {
//	    dispatcher.HandleRecord(rec)
//	    return nil
//	})
//
// Run blocks until the context is cancelled, reconnecting on connection
// loss. Authentication rejection is terminal.
package hass
