// Package mqtt provides MQTT connectivity for the bridge daemon.
//
// It wraps the eclipse/paho.mqtt.golang library with connection management,
// automatic reconnection, and publish helpers. The daemon is a publisher
// only: health reports and instrument readings go out, nothing comes in.
//
// # Topics
//
// All topics live under the "plgpib" prefix:
//
//	plgpib/system/status            online/offline status (retained, LWT)
//	plgpib/health/{bridge_id}       periodic health reports (retained)
//	plgpib/reading/{bridge_id}/{n}  instrument readings by GPIB address
//
// Use the Topics builders rather than hand-writing topic strings.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.BridgeHealth("gpib-bridge-01")
//	err = client.PublishRetained(topic, payload)
//
// # Offline Detection
//
// A Last Will and Testament message is registered at connect time. If the
// daemon crashes or loses its network link, the broker publishes the LWT
// to plgpib/system/status so dashboards see the bridge go offline without
// waiting for a missed health report.
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
package mqtt
