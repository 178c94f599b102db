// Command bringup-bridge serves a simulated subsystem over the register
// bridge protocol.
//
// The bridge exposes the register space of internal/devsim on TCP so that
// bringup-ctl (or any bridge client) can run the bring-up protocols against
// it. It can advertise itself via mDNS and persist the lifecycle state.
//
// Usage:
//
//	bringup-bridge [flags]
//
// Flags:
//
//	-listen string       Listen address (default ":7441")
//	-advertise           Advertise the bridge via mDNS
//	-instance string     mDNS instance name (default: hostname based)
//	-state-file string   Persist lifecycle state to this YAML file
//	-token STATE=HEX     Transition token for a target state (repeatable)
//	-recovery            Start with the recovery interface awaiting an image
//	-image string        Stage an image in device memory
//	-trace string        Write a protocol trace file
//	-log-level string    Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Fresh device with a TEST_UNLOCKED0 token, advertised on the LAN
//	bringup-bridge -advertise -token TEST_UNLOCKED0=0xf12a5911421748a2adfc9693ef1fadea
//
//	# Keep lifecycle state across restarts
//	bringup-bridge -state-file /var/lib/bringup/devsim.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ssbringup/bringup-go/internal/devsim"
	"github.com/ssbringup/bringup-go/pkg/discovery"
	"github.com/ssbringup/bringup-go/pkg/lcctrl"
	"github.com/ssbringup/bringup-go/pkg/log"
	"github.com/ssbringup/bringup-go/pkg/persistence"
	"github.com/ssbringup/bringup-go/pkg/stream"
	"github.com/ssbringup/bringup-go/pkg/transport"
)

// Config holds the bridge configuration.
type Config struct {
	Listen         string
	Advertise      bool
	Instance       string
	Interface      string
	StateFile      string
	Tokens         tokenFlag
	Recovery       bool
	ImageFile      string
	MaxTransitions int
	FuseGate       bool
	InjectOTPError bool
	TraceFile      string
	LogLevel       string
}

// tokenFlag collects STATE=TOKEN pairs.
type tokenFlag map[lcctrl.State]lcctrl.Token

func (f tokenFlag) String() string {
	parts := make([]string, 0, len(f))
	for s, t := range f {
		parts = append(parts, fmt.Sprintf("%s=%s", s, t))
	}
	return strings.Join(parts, ",")
}

func (f tokenFlag) Set(v string) error {
	name, hex, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("want STATE=TOKEN, got %q", v)
	}
	s, err := lcctrl.ParseState(name)
	if err != nil {
		return err
	}
	t, err := lcctrl.ParseToken(hex)
	if err != nil {
		return err
	}
	f[s] = t
	return nil
}

var config = Config{Tokens: tokenFlag{}}

func init() {
	flag.StringVar(&config.Listen, "listen", fmt.Sprintf(":%d", transport.DefaultPort), "Listen address")
	flag.BoolVar(&config.Advertise, "advertise", false, "Advertise the bridge via mDNS")
	flag.StringVar(&config.Instance, "instance", "", "mDNS instance name (default: hostname based)")
	flag.StringVar(&config.Interface, "interface", "", "Network interface for mDNS (default: all)")
	flag.StringVar(&config.StateFile, "state-file", "", "Persist lifecycle state to this YAML file")
	flag.Var(config.Tokens, "token", "Transition token STATE=HEX (repeatable)")
	flag.BoolVar(&config.Recovery, "recovery", false, "Start with the recovery interface awaiting an image")
	flag.StringVar(&config.ImageFile, "image", "", "Stage an image in device memory")
	flag.IntVar(&config.MaxTransitions, "max-transitions", devsim.DefaultMaxTransitions, "Transition counter limit")
	flag.BoolVar(&config.FuseGate, "fuse-gate", true, "Hold controller readiness until fuse write done")
	flag.BoolVar(&config.InjectOTPError, "inject-otp-error", false, "Fail every transition with an OTP error")
	flag.StringVar(&config.TraceFile, "trace", "", "Write a protocol trace file")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()
	logger := setupLogging(config.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		logger.Error("bridge failed", "error", err)
		os.Exit(1)
	}
}

// deviceOptions builds the simulator options from the flags.
func deviceOptions(cfg Config, logger *slog.Logger) (devsim.Options, error) {
	opts := devsim.Options{
		Tokens:          cfg.Tokens,
		MaxTransitions:  cfg.MaxTransitions,
		GateOnFuseWrite: cfg.FuseGate,
		InjectOTPError:  cfg.InjectOTPError,
		RecoveryMode:    cfg.Recovery,
		Logger:          logger,
	}
	if cfg.StateFile != "" {
		opts.Store = persistence.NewDeviceStateStore(cfg.StateFile)
	}
	if cfg.ImageFile != "" {
		img, err := stream.LoadImageFile(cfg.ImageFile)
		if err != nil {
			return opts, err
		}
		opts.StagedImage = img
	}
	return opts, nil
}

func run(ctx context.Context, logger *slog.Logger) error {
	opts, err := deviceOptions(config, logger)
	if err != nil {
		return err
	}
	dev, err := devsim.New(opts)
	if err != nil {
		return err
	}
	logger.Info("simulated device ready", "model", devsim.Model, "state", dev.State(), "transitions", dev.TransitionCount())

	sessionID := uuid.NewString()
	var trace log.Logger
	if config.TraceFile != "" {
		fl, err := log.NewFileLogger(config.TraceFile)
		if err != nil {
			return fmt.Errorf("open trace file: %w", err)
		}
		defer fl.Close()
		trace = fl
	}

	srv, err := transport.NewServer(transport.ServerConfig{
		Address:   config.Listen,
		Port:      dev.Port(),
		Mapped:    dev.Mapped,
		Model:     devsim.Model,
		Logger:    logger,
		Trace:     trace,
		SessionID: sessionID,
		OnConnect: func(c *transport.ServerConn) {
			logger.Info("client connected", "conn", c.ConnID(), "remote", c.RemoteAddr())
		},
		OnDisconnect: func(c *transport.ServerConn) {
			logger.Info("client disconnected", "conn", c.ConnID(), "violations", dev.Violations())
		},
		OnError: func(c *transport.ServerConn, err error) {
			logger.Warn("connection error", "conn", c.ConnID(), "error", err)
		},
	})
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer srv.Stop()
	logger.Info("bridge listening", "addr", srv.Addr())

	if config.Advertise {
		adv, err := advertise(srv.Addr().String(), sessionID)
		if err != nil {
			return err
		}
		defer adv.Stop()
	}

	<-ctx.Done()
	logger.Info("shutting down", "state", dev.State(), "violations", dev.Violations())
	return nil
}

func advertise(listenAddr, sessionID string) (*discovery.Advertiser, error) {
	port, err := portOf(listenAddr)
	if err != nil {
		return nil, err
	}
	instance := config.Instance
	if instance == "" {
		host, _ := os.Hostname()
		instance = discovery.DefaultInstanceName(host)
	}
	adv := discovery.NewAdvertiser(discovery.AdvertiserConfig{Interface: config.Interface})
	err = adv.Advertise(&discovery.BridgeInfo{
		Instance:  instance,
		Port:      port,
		Model:     devsim.Model,
		SessionID: sessionID,
		Version:   transport.ProtocolVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("advertise: %w", err)
	}
	return adv, nil
}

// portOf returns the TCP port of a listen address.
func portOf(addr string) (uint16, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(p, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port in %q", addr)
	}
	return uint16(n), nil
}

func setupLogging(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return newLogger(os.Stderr, lvl)
}

func newLogger(w io.Writer, lvl slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.TimeOnly + ".000000"))
			}
			return a
		},
	}))
}
