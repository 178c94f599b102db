package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ssbringup/bringup-go/pkg/bootcfg"
	"github.com/ssbringup/bringup-go/pkg/mailbox"
	"github.com/ssbringup/bringup-go/pkg/regmap"
	"github.com/ssbringup/bringup-go/pkg/stream"
)

// Console is the interactive register console.
type Console struct {
	runner *Runner
	rl     *readline.Instance
	out    io.Writer
}

func registerNames(string) []string {
	return regmap.Names(regmap.Registers)
}

// NewConsole creates a console reading commands from the terminal.
func NewConsole(r *Runner) (*Console, error) {
	regs := readline.PcItemDynamic(registerNames)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "bringup> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("read", regs),
			readline.PcItem("write", regs),
			readline.PcItem("transition"),
			readline.PcItem("wait-ready"),
			readline.PcItem("mailbox"),
			readline.PcItem("stream"),
			readline.PcItem("state"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{runner: r, rl: rl, out: rl.Stdout()}, nil
}

// Stdout returns a writer that coordinates with the prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// errQuit is returned by Exec for the quit command.
var errQuit = errors.New("quit")

// Run reads and executes commands until quit, EOF or ctx ends.
func (c *Console) Run(ctx context.Context) {
	defer c.rl.Close()

	c.printHelp()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			return
		}

		err = c.Exec(ctx, strings.Fields(line))
		if errors.Is(err, errQuit) {
			fmt.Fprintln(c.out, "Exiting...")
			return
		}
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
	}
}

// Exec runs one command. It returns errQuit for the quit command.
func (c *Console) Exec(ctx context.Context, parts []string) error {
	if len(parts) == 0 {
		return nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
		return nil
	case "read", "r":
		return c.cmdRead(args)
	case "write", "w":
		return c.cmdWrite(args)
	case "transition", "t":
		return c.cmdTransition(ctx, args)
	case "wait-ready":
		if err := c.runner.WaitReady(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "lifecycle controller ready")
		return nil
	case "mailbox", "mb":
		return c.cmdMailbox(ctx, args)
	case "stream":
		return c.cmdStream(ctx, args)
	case "state", "s":
		return c.cmdState()
	case "quit", "exit", "q":
		return errQuit
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for commands)", cmd)
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Bring-up Console Commands:
  Registers:
    read <reg>                    - Read a register (name or address)
    write <reg> <value>           - Write a register

  Protocols:
    transition <state> [token]    - Request a lifecycle transition
    wait-ready                    - Run the controller readiness handshake
    mailbox <cmd> [words...]      - Execute a mailbox command (suffix cmd with ! for a response)
    stream <image-file>           - Load and boot a recovery image
    state                         - Show the lifecycle state

  General:
    help                          - Show this help
    quit                          - Exit`)
}

func (c *Console) cmdRead(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: read <reg>")
	}
	addr, err := bootcfg.RegRef(args[0]).Resolve()
	if err != nil {
		return err
	}
	v, err := c.runner.Read(addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s = 0x%08x\n", addr, v)
	return nil
}

func (c *Console) cmdWrite(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: write <reg> <value>")
	}
	addr, err := bootcfg.RegRef(args[0]).Resolve()
	if err != nil {
		return err
	}
	v, err := parseValue(args[1])
	if err != nil {
		return err
	}
	return c.runner.Write(addr, v)
}

func (c *Console) cmdTransition(ctx context.Context, args []string) error {
	target, token, err := parseTarget(args)
	if err != nil {
		return err
	}
	out, err := c.runner.Transition(ctx, target, token)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "transition to %s: %s\n", target, out)
	return nil
}

func (c *Console) cmdMailbox(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: mailbox <cmd>[!] [words...]")
	}
	name, resp := strings.CutSuffix(args[0], "!")
	cmd, err := parseMailboxCommand(name)
	if err != nil {
		return err
	}
	data, err := parseWords(args[1:])
	if err != nil {
		return err
	}
	res, err := c.runner.Mailbox(ctx, mailbox.Transaction{
		Command:          cmd,
		DataLength:       uint32(4 * len(data)),
		ResponseRequired: resp,
		Data:             data,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "mailbox 0x%08x: %s\n", cmd, res.Status)
	for i, w := range res.Response {
		fmt.Fprintf(c.out, "  [%d] 0x%08x\n", i, w)
	}
	return nil
}

func (c *Console) cmdStream(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: stream <image-file>")
	}
	image, err := stream.LoadImageFile(args[0])
	if err != nil {
		return err
	}
	info, err := c.runner.Stream(ctx, image)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "image of %d words booted (device 0x%08x)\n", len(image), info.DeviceID)
	return nil
}

func (c *Console) cmdState() error {
	s, err := c.runner.LifecycleState()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "lifecycle state: %s (%d)\n", s, uint8(s))
	return nil
}
