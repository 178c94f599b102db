package discovery

import (
	"errors"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceType is the service type of register bridges.
	ServiceType = "_regbridge._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// BrowseTimeout is the default browse duration.
	BrowseTimeout = 5 * time.Second

	// MaxInstanceNameLen is the DNS label limit for instance names.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTKeyModel   = "model" // Served device model (required)
	TXTKeySession = "sid"   // Bridge trace session ID (optional)
	TXTKeyVersion = "pv"    // Bridge protocol version (optional)
)

// Discovery errors.
var (
	ErrMissingRequired     = errors.New("missing required TXT field")
	ErrInstanceNameTooLong = errors.New("instance name invalid")
	ErrInvalidPort         = errors.New("invalid port")
	ErrNotFound            = errors.New("no bridge found")
)

// BridgeInfo is what a bridge advertises.
type BridgeInfo struct {
	// Instance is the mDNS instance name.
	Instance string

	// Port is the bridge TCP port.
	Port uint16

	// Model names the served device.
	Model string

	// SessionID is the bridge's trace session (optional).
	SessionID string

	// Version is the bridge protocol version (0 = not advertised).
	Version uint32
}

// Validate checks the info before advertising.
func (i *BridgeInfo) Validate() error {
	if err := ValidateInstanceName(i.Instance); err != nil {
		return err
	}
	if i.Port == 0 {
		return ErrInvalidPort
	}
	if i.Model == "" {
		return ErrMissingRequired
	}
	return nil
}

// BridgeService is a bridge found by browsing.
type BridgeService struct {
	BridgeInfo

	// Host is the advertised host name.
	Host string

	// Addresses lists the resolved IPv4 and IPv6 addresses.
	Addresses []string
}

// Address returns a dialable host:port for the service, preferring the
// first resolved address over the host name.
func (s *BridgeService) Address() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return joinHostPort(host, s.Port)
}
