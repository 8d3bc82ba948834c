package mqtt

import "fmt"

// Topic prefixes for the bridge daemon's MQTT hierarchy.
//
// All topics use the flat scheme: plgpib/{category}/{id}
const (
	// TopicPrefix is the base for all bridge topics.
	TopicPrefix = "plgpib"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "plgpib/system"
)

// Topics provides builders for bridge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	healthTopic := topics.BridgeHealth("gpib-bridge-01")
//	// Returns: "plgpib/health/gpib-bridge-01"
type Topics struct{}

// SystemStatus returns the topic for daemon online/offline status.
//
// Example: plgpib/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// BridgeHealth returns the topic for periodic bridge health reports.
//
// Example: plgpib/health/gpib-bridge-01
func (Topics) BridgeHealth(bridgeID string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, bridgeID)
}

// InstrumentReading returns the topic for published instrument readings.
//
// Example: plgpib/reading/gpib-bridge-01/6
func (Topics) InstrumentReading(bridgeID string, address int) string {
	return fmt.Sprintf("%s/reading/%s/%d", TopicPrefix, bridgeID, address)
}
