// Command bringup-ctl runs bring-up protocols against a register bridge.
//
// It connects to a bridge over TCP, a UART, or the first bridge found via
// mDNS, then runs one protocol operation or an interactive console.
//
// Usage:
//
//	bringup-ctl [flags] <command> [args]
//
// Flags:
//
//	-addr string        Bridge address (default "localhost:7441")
//	-serial string      UART device of a serial bridge
//	-discover           Browse mDNS for a bridge instead of -addr
//	-profile string     Bring-up profile (YAML); built-in default if empty
//	-trace string       Write a protocol trace file
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-interactive        Start the interactive console
//	-wait duration      Keep retrying the bridge connection for this long
//
// Commands:
//
//	transition <state> [token]   Request a lifecycle transition
//	wait-ready                   Run the controller readiness handshake
//	stream <image-file>          Load and boot a recovery image
//	mailbox <cmd>[!] [words...]  Execute a mailbox command
//	read <reg>                   Read a register
//	write <reg> <value>          Write a register
//	state                        Show the lifecycle state
//
// Examples:
//
//	# Unlock a fresh device
//	bringup-ctl transition TEST_UNLOCKED0 0xf12a5911421748a2adfc9693ef1fadea
//
//	# Ask the device to enter recovery and load an image
//	bringup-ctl mailbox FWLD! && bringup-ctl stream fw.bin
//
//	# Console against the first advertised bridge, traced
//	bringup-ctl -discover -trace session.btrace -interactive
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ssbringup/bringup-go/pkg/bootcfg"
	"github.com/ssbringup/bringup-go/pkg/discovery"
	"github.com/ssbringup/bringup-go/pkg/log"
	"github.com/ssbringup/bringup-go/pkg/poll"
	"github.com/ssbringup/bringup-go/pkg/regport"
	"github.com/ssbringup/bringup-go/pkg/transport"
)

// Config holds the command configuration.
type Config struct {
	Addr        string
	Serial      string
	Baud        int
	Discover    bool
	Model       string
	ProfileFile string
	TraceFile   string
	LogLevel    string
	Interactive bool
	Wait        time.Duration
}

var config Config

func init() {
	flag.StringVar(&config.Addr, "addr", fmt.Sprintf("localhost:%d", transport.DefaultPort), "Bridge address")
	flag.StringVar(&config.Serial, "serial", "", "UART device of a serial bridge")
	flag.IntVar(&config.Baud, "baud", 115200, "UART baud rate")
	flag.BoolVar(&config.Discover, "discover", false, "Browse mDNS for a bridge")
	flag.StringVar(&config.Model, "model", "", "Only accept discovered bridges serving this model")
	flag.StringVar(&config.ProfileFile, "profile", "", "Bring-up profile (YAML)")
	flag.StringVar(&config.TraceFile, "trace", "", "Write a protocol trace file")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&config.Interactive, "interactive", false, "Start the interactive console")
	flag.DurationVar(&config.Wait, "wait", 0, "Keep retrying the bridge connection for this long")
}

func main() {
	flag.Parse()
	logger := setupLogging(config.LogLevel)

	if !config.Interactive && flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: command required (or -interactive)")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	profile := bootcfg.Default()
	if config.ProfileFile != "" {
		p, err := bootcfg.Load(config.ProfileFile)
		if err != nil {
			return err
		}
		profile = p
	}

	sessionID := uuid.NewString()
	var trace log.Logger
	if config.TraceFile != "" {
		fl, err := log.NewFileLogger(config.TraceFile)
		if err != nil {
			return fmt.Errorf("open trace file: %w", err)
		}
		defer fl.Close()
		trace = log.NewMultiLogger(fl, log.NewSlogAdapter(logger).WithLevel(slog.LevelDebug))
		logger.Info("tracing", "file", config.TraceFile, "session", sessionID)
	}

	client, err := connect(ctx, logger, trace, sessionID)
	if err != nil {
		return err
	}
	defer client.Close()

	var port regport.Port = client
	if trace != nil {
		port = regport.NewTracingPort(client, trace, sessionID)
	}

	runner := &Runner{
		Port:      port,
		Profile:   profile,
		Logger:    logger,
		Trace:     trace,
		SessionID: sessionID,
	}

	if config.Interactive {
		console, err := NewConsole(runner)
		if err != nil {
			return err
		}
		console.Run(ctx)
		return nil
	}

	c := &Console{runner: runner, out: os.Stdout}
	err = c.Exec(ctx, flag.Args())
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// connect opens the bridge selected by the flags.
func connect(ctx context.Context, logger *slog.Logger, trace log.Logger, sessionID string) (*transport.Client, error) {
	cc := transport.ClientConfig{Trace: trace, SessionID: sessionID}

	if config.Serial != "" {
		logger.Info("opening serial bridge", "device", config.Serial, "baud", config.Baud)
		return transport.OpenSerial(transport.SerialConfig{Name: config.Serial, Baud: config.Baud, Client: cc})
	}

	addr := config.Addr
	if config.Discover {
		browseCtx, cancel := context.WithTimeout(ctx, discovery.BrowseTimeout)
		defer cancel()
		svc, err := discovery.NewBrowser(discovery.BrowserConfig{Model: config.Model, Logger: logger}).FindFirst(browseCtx)
		if err != nil {
			return nil, fmt.Errorf("discover bridge: %w", err)
		}
		logger.Info("discovered bridge", "instance", svc.Instance, "model", svc.Model, "address", svc.Address())
		addr = svc.Address()
	}

	var client *transport.Client
	var err error
	if config.Wait > 0 {
		client, err = transport.DialRetry(ctx, addr, cc, poll.Budget{
			Timeout:     config.Wait,
			Interval:    100 * time.Millisecond,
			MaxInterval: 2 * time.Second,
			Factor:      2,
		})
	} else {
		client, err = transport.Dial(ctx, addr, cc)
	}
	if err != nil {
		return nil, err
	}
	if model, version, err := client.Info(); err == nil {
		logger.Info("connected", "address", addr, "model", model, "protocol", version)
	}
	return client, nil
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
