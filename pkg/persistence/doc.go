// Package persistence keeps simulated device state across restarts.
//
// A register bridge serving a simulated subsystem saves the lifecycle state
// and transition history after every completed transition, so a bench
// session can stop and restart the bridge without losing the device's
// position in its lifecycle. State files are YAML.
package persistence
