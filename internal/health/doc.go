// Package health publishes periodic bridge health reports over MQTT.
//
// The reporter samples the GPIB controller's session counters on a fixed
// interval and publishes a retained JSON message to the bridge's health
// topic. Dashboards subscribe once and always see the latest report.
//
// # Status Model
//
//	healthy    serial channel and broker connection both up
//	degraded   daemon running but a dependency is down
//	starting   published once during initialization
//	stopping   published once during graceful shutdown
//	offline    published by the broker as the LWT, never by the daemon
//
// # Usage
//
//	reporter := health.NewReporter(health.Config{
//	    BridgeID:  cfg.Bridge.ID,
//	    Version:   version,
//	    Interval:  cfg.MQTT.GetHealthInterval(),
//	    Publisher: mqttClient,
//	    Bridge:    controller,
//	})
//	reporter.Start(ctx)
//	defer reporter.Stop()
package health
