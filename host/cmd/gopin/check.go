package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gopin/machine"
	"gopin/pins"
	"gopin/pins/pinsim"
)

var (
	checkDump bool

	checkCmd = &cobra.Command{
		Use:   "check [machine.yaml]",
		Short: "Bring up a machine pin map on a simulated chip",
		Long: "Load a machine file (the built-in servo axis machine if none is given), " +
			"claim and configure every signal on a simulated ESP32 and report the result.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := machine.ServoAxis()
			if len(args) == 1 {
				var err error
				if cfg, err = machine.Load(args[0]); err != nil {
					return err
				}
			}
			return runCheck(cmd.OutOrStdout(), cfg, checkDump)
		},
	}
)

func init() {
	checkCmd.Flags().BoolVar(&checkDump, "dump", false, "print the effective machine file")
}

func runCheck(w io.Writer, cfg *machine.Config, dump bool) error {
	if dump {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	}

	board := pins.NewBoard(pinsim.New())
	sigs, err := machine.Bringup(board, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "machine %s: %d signals\n", cfg.Name, len(sigs.Names()))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SIGNAL\tPIN\tROLE\tMODE")
	for _, name := range sigs.Names() {
		p, _ := sigs.Get(name)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, p, sigs.Role(name), p.Mode())
	}
	return tw.Flush()
}
