// Package config provides configuration loading for the pl-gpib driver.
//
// Configuration is loaded from a YAML file, overridden by PLGPIB_*
// environment variables, and validated before use.
//
// # Example
//
//	serial:
//	  port: "/dev/ttyUSB0"
//	  baud_rate: 115200
//	  read_timeout: 1000
//	bridge:
//	  id: "gpib-bridge-01"
//	  mode: 1
//	instruments:
//	  - address: 6
//	    name: "function generator"
//	logging:
//	  level: "info"
//	  format: "json"
//	trace:
//	  enabled: true
//	  path: "./data/plgpib-trace.db"
//
// # Environment Overrides
//
// Secrets should come from the environment, not the file:
// PLGPIB_MQTT_PASSWORD, PLGPIB_TELEMETRY_TOKEN. Deployment-specific values
// can be overridden the same way: PLGPIB_SERIAL_PORT, PLGPIB_MQTT_HOST.
package config
