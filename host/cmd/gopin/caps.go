package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gopin/pins"
)

var capsCmd = &cobra.Command{
	Use:   "caps [index...]",
	Short: "Print the pin capability table",
	RunE: func(cmd *cobra.Command, args []string) error {
		indices, err := parseIndices(args)
		if err != nil {
			return err
		}
		return printCaps(cmd.OutOrStdout(), indices)
	},
}

// parseIndices returns the requested pin indices, or every mapped pin if
// none are given.
func parseIndices(args []string) ([]uint8, error) {
	if len(args) == 0 {
		var all []uint8
		for i := 0; i <= pins.MaxIndex; i++ {
			if pins.CapabilitiesOf(uint8(i)) != pins.CapNone {
				all = append(all, uint8(i))
			}
		}
		return all, nil
	}

	out := make([]uint8, 0, len(args))
	for _, a := range args {
		n, err := strconv.ParseUint(a, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("bad pin index %q", a)
		}
		out = append(out, uint8(n))
	}
	return out, nil
}

func printCaps(w io.Writer, indices []uint8) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PIN\tCAPABILITIES\tNOTE")
	for _, i := range indices {
		note := ""
		if pins.IsReserved(i) {
			note = "serial console"
		}
		fmt.Fprintf(tw, "GPIO.%d\t%s\t%s\n", i, pins.CapabilitiesOf(i), note)
	}
	return tw.Flush()
}
