package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// Advertiser announces one bridge on the local network.
type Advertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser creates a new mDNS advertiser.
func NewAdvertiser(config AdvertiserConfig) *Advertiser {
	if config.TTL == 0 {
		config.TTL = 120 * time.Second
	}
	return &Advertiser{config: config}
}

// Advertise starts announcing info, replacing any earlier announcement.
func (a *Advertiser) Advertise(info *BridgeInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	server, err := zeroconf.Register(
		info.Instance,
		ServiceType,
		Domain,
		int(info.Port),
		TXTRecordsToStrings(EncodeBridgeTXT(info)),
		selectInterfaces(a.config.Interface),
		zeroconf.TTL(uint32(a.config.TTL.Seconds())),
	)
	if err != nil {
		return fmt.Errorf("failed to register bridge service: %w", err)
	}

	a.server = server
	return nil
}

// Stop withdraws the announcement. Safe to call when not advertising.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// Model, when set, drops bridges serving a different device model.
	Model string

	// Logger reports browse failures (optional).
	Logger *slog.Logger
}

// Browser finds register bridges on the local network.
type Browser struct {
	config  BrowserConfig
	options []zeroconf.ClientOption
}

// NewBrowser creates a new mDNS browser.
func NewBrowser(config BrowserConfig) *Browser {
	return &Browser{config: config}
}

// Browse streams bridges until ctx is done. Services are aggregated by
// instance name: addresses seen on several interfaces are merged and a
// service is emitted once. If the mDNS client cannot start, the failure is
// logged and the channel is closed.
func (b *Browser) Browse(ctx context.Context) (<-chan *BridgeService, error) {
	out, errc := b.browse(ctx)
	go func() {
		if err := <-errc; err != nil && b.config.Logger != nil {
			b.config.Logger.Warn("mDNS browse failed", "error", err)
		}
	}()
	return out, nil
}

// browse runs the zeroconf client. errc receives its exit error exactly
// once; out is closed after a failure or when ctx is done.
func (b *Browser) browse(ctx context.Context) (<-chan *BridgeService, <-chan error) {
	out := make(chan *BridgeService)
	errc := make(chan error, 1)
	failed := make(chan struct{})

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	opts := append([]zeroconf.ClientOption(nil), b.options...)
	if ifaces := selectInterfaces(b.config.Interface); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}

	go func() {
		defer close(out)

		services := make(map[string]*BridgeService)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := b.entryToService(entry)
				if svc == nil {
					continue
				}
				if existing, found := services[svc.Instance]; found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
					continue
				}
				services[svc.Instance] = svc
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				if existing, found := services[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, entry)
					if len(existing.Addresses) == 0 {
						delete(services, entry.Instance)
					}
				}

			case <-failed:
				return

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		err := zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...)
		if err != nil && ctx.Err() == nil {
			err = fmt.Errorf("browse %s: %w", ServiceType, err)
			close(failed)
		} else {
			err = nil
		}
		errc <- err
	}()

	return out, errc
}

// FindFirst returns the first bridge found before ctx is done. Without a
// deadline on ctx, BrowseTimeout applies. A failure to start browsing is
// returned as is rather than as ErrNotFound.
func (b *Browser) FindFirst(ctx context.Context) (*BridgeService, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, BrowseTimeout)
		defer cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	services, errc := b.browse(ctx)
	if svc, ok := <-services; ok {
		return svc, nil
	}
	cancel()
	if err := <-errc; err != nil {
		return nil, err
	}
	return nil, ErrNotFound
}

// entryToService converts a zeroconf entry, or returns nil when the entry
// is not a usable bridge.
func (b *Browser) entryToService(entry *zeroconf.ServiceEntry) *BridgeService {
	info, err := DecodeBridgeTXT(StringsToTXTRecords(entry.Text))
	if err != nil {
		return nil
	}
	if b.config.Model != "" && info.Model != b.config.Model {
		return nil
	}
	info.Instance = entry.Instance
	info.Port = uint16(entry.Port)

	return &BridgeService{
		BridgeInfo: *info,
		Host:       entry.HostName,
		Addresses:  entryAddresses(entry),
	}
}

func entryAddresses(entry *zeroconf.ServiceEntry) []string {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

// selectInterfaces returns the named interface, or nil for all interfaces.
func selectInterfaces(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range added {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses removes the addresses of entry from the list.
func removeAddresses(addresses []string, entry *zeroconf.ServiceEntry) []string {
	toRemove := make(map[string]bool)
	for _, addr := range entryAddresses(entry) {
		toRemove[addr] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}
