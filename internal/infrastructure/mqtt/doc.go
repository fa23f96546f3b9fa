// Package mqtt provides the MQTT live event source for statebridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Subscription to the Home Assistant eventstream topic
//   - Decoding state_changed events into change records
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Home Assistant's mqtt_eventstream integration republishes every bus
// event as JSON on a single topic. statebridge subscribes to that topic,
// filters for state_changed events, and hands each decoded record to the
// feed dispatcher.
//
//	Home Assistant → MQTT Broker → statebridge → time-series sink
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.Source.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.SubscribeEvents(func(rec metric.ChangeRecord) error {
//	    dispatcher.HandleRecord(rec)
//	    return nil
//	})
package mqtt
