package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/db47h/gatesim"
)

var infoTop string

// infoCmd reports static figures of a netlist: the module tree, the cell
// breakdown and the aggregate area. No port configuration is needed.
var infoCmd = &cobra.Command{
	Use:   "info netlist.json",
	Short: "Report module tree, cell usage and area of a netlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := gatesim.LoadFile(args[0], infoTop, nil)
		if err != nil {
			return err
		}

		fmt.Println("modules:")
		for name := range m.Names() {
			fmt.Println("  " + name)
		}

		bd := m.CellBreakdown()
		types := make([]string, 0, len(bd))
		for t := range bd {
			types = append(types, t)
		}
		sort.Strings(types)

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "cell type\tcount")
		for _, t := range types {
			fmt.Fprintf(w, "%s\t%d\n", t, bd[t])
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("total area: %d\n", m.Area())
		return nil
	},
}

func init() {
	infoCmd.Flags().StringVar(&infoTop, "top", "top", "name of the top module")
	rootCmd.AddCommand(infoCmd)
}
