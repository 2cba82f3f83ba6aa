package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"gopin/pins"
	"gopin/pins/pinsim"
)

var (
	shellOpts = backendOptions{}

	shellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Claim and drive pins interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(shellOpts)
			if err != nil {
				return err
			}
			defer b.close()

			sh := newShell(pins.NewBoard(b.hw), b.chip, cmd.OutOrStdout())
			return sh.run(cmd.InOrStdin(), isTerminal(cmd.InOrStdin()))
		},
	}
)

func init() {
	shellCmd.Flags().StringVar(&shellOpts.name, "backend", "sim", "pin backend: sim, periph or serial")
	shellCmd.Flags().StringVar(&shellOpts.device, "device", "/dev/ttyUSB0", "serial device for the serial backend")
	shellCmd.Flags().IntVar(&shellOpts.baud, "baud", 115200, "baud rate for the serial backend")
}

var errQuit = errors.New("quit")

type shell struct {
	board *pins.Board
	chip  *pinsim.Chip

	mu  sync.Mutex // serialises output with interrupt handlers
	out io.Writer

	named map[string]pins.Pin
}

func newShell(board *pins.Board, chip *pinsim.Chip, out io.Writer) *shell {
	return &shell{
		board: board,
		chip:  chip,
		out:   out,
		named: make(map[string]pins.Pin),
	}
}

func (s *shell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

// run reads commands until EOF or quit.
func (s *shell) run(in io.Reader, prompt bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			s.printf("> ")
		}
		if !scanner.Scan() {
			break
		}

		args, err := shlex.Split(scanner.Text())
		if err != nil {
			s.printf("Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		if err := s.exec(args); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			s.printf("Error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (s *shell) exec(args []string) error {
	cmd, rest := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		s.printHelp()
		return nil
	case "claim":
		return s.claim(rest)
	case "configure":
		return s.configure(rest)
	case "write":
		return s.write(rest)
	case "read":
		return s.read(rest)
	case "attach":
		return s.attach(rest)
	case "detach":
		return s.detach(rest)
	case "drive":
		return s.drive(rest)
	case "pins":
		return s.listPins()
	}
	return fmt.Errorf("unknown command %q (type 'help' for available commands)", cmd)
}

func (s *shell) printHelp() {
	s.printf(`Available commands:
  claim <name> <pin>           - Claim a pin, e.g. claim x_limit gpio.15:pu
  configure <name> <attr...>   - Apply a mode (input output pullup pulldown activelow initialon isr)
  write <name> <0|1>           - Set the logical level of an output
  read <name>                  - Read the logical level
  attach <name> <edge>         - Report rising, falling or change edges
  detach <name>                - Stop reporting edges
  drive <index> <0|1>          - Set an input level (sim backend only)
  pins                         - List claimed pins
  quit                         - Exit the shell
`)
}

func need(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func (s *shell) pin(name string) (pins.Pin, error) {
	p, ok := s.named[name]
	if !ok {
		return nil, fmt.Errorf("no pin named %q", name)
	}
	return p, nil
}

func parseLevel(arg string) (pins.Level, error) {
	switch strings.ToLower(arg) {
	case "0", "low", "off":
		return pins.Low, nil
	case "1", "high", "on":
		return pins.High, nil
	}
	return pins.Low, fmt.Errorf("bad level %q", arg)
}

func (s *shell) claim(args []string) error {
	if err := need(args, 2, "claim <name> <pin>"); err != nil {
		return err
	}
	if _, taken := s.named[args[0]]; taken {
		return fmt.Errorf("name %q already in use", args[0])
	}
	p, err := s.board.Claim(args[0], args[1])
	if err != nil {
		return err
	}
	s.named[args[0]] = p
	s.printf("%s: %s [%s]\n", args[0], p, p.Capabilities())
	return nil
}

func (s *shell) configure(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: configure <name> <attr...>")
	}
	p, err := s.pin(args[0])
	if err != nil {
		return err
	}
	attrs, err := pins.ParseAttributes(args[1:])
	if err != nil {
		return err
	}
	if err := p.Configure(attrs); err != nil {
		return err
	}
	s.printf("%s: %s\n", args[0], p.Mode())
	return nil
}

func (s *shell) write(args []string) error {
	if err := need(args, 2, "write <name> <0|1>"); err != nil {
		return err
	}
	p, err := s.pin(args[0])
	if err != nil {
		return err
	}
	level, err := parseLevel(args[1])
	if err != nil {
		return err
	}
	return p.Write(level)
}

func (s *shell) read(args []string) error {
	if err := need(args, 1, "read <name>"); err != nil {
		return err
	}
	p, err := s.pin(args[0])
	if err != nil {
		return err
	}
	s.printf("%s: %s\n", args[0], p.Read())
	return nil
}

func (s *shell) attach(args []string) error {
	if err := need(args, 2, "attach <name> <edge>"); err != nil {
		return err
	}
	p, err := s.pin(args[0])
	if err != nil {
		return err
	}
	edge, err := pins.ParseEdge(args[1])
	if err != nil {
		return err
	}
	return p.AttachInterrupt(func(arg any) {
		s.printf("interrupt: %s (%s)\n", arg, edge)
	}, args[0], edge)
}

func (s *shell) detach(args []string) error {
	if err := need(args, 1, "detach <name>"); err != nil {
		return err
	}
	p, err := s.pin(args[0])
	if err != nil {
		return err
	}
	return p.DetachInterrupt()
}

func (s *shell) drive(args []string) error {
	if s.chip == nil {
		return fmt.Errorf("drive needs the sim backend")
	}
	if err := need(args, 2, "drive <index> <0|1>"); err != nil {
		return err
	}
	n, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return fmt.Errorf("bad pin index %q", args[0])
	}
	level, err := parseLevel(args[1])
	if err != nil {
		return err
	}
	s.chip.Drive(uint8(n), level)
	return nil
}

func (s *shell) listPins() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PIN\tOWNER\tMODE\tLEVEL")
	for _, p := range s.board.Pins() {
		owner, _ := s.board.Owner(p.Index())
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p, owner, p.Mode(), p.Read())
	}
	return tw.Flush()
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	st, err := f.Stat()
	return err == nil && st.Mode()&os.ModeCharDevice != 0
}
