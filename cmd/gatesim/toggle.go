package main

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/db47h/gatesim"
)

var (
	toggleTop    string
	toggleConfig string
	toggleCycles int
	toggleSeed   int64
)

// portEntry is one ports.<name> entry of the configuration file.
type portEntry struct {
	Rows   int
	Cols   int
	Width  int
	Signed bool
	Role   string
}

// readConfig loads the port configuration file:
//
//	ports:
//	  clk:   {role: clock}
//	  rst:   {role: reset}
//	  op0:   {rows: 1, cols: 16, width: 8, signed: true}
//	  mac_o: {width: 32, signed: true}
func readConfig(path string) (gatesim.Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read port configuration")
	}
	var entries map[string]portEntry
	if err := v.UnmarshalKey("ports", &entries); err != nil {
		return nil, errors.Wrap(err, "decode port configuration")
	}
	cfg := make(gatesim.Config, len(entries))
	for name, e := range entries {
		pc := gatesim.PortConfig{Rows: e.Rows, Cols: e.Cols, Width: e.Width, Signed: e.Signed}
		switch e.Role {
		case "":
		case "clock":
			pc.Role = gatesim.RoleClock
		case "reset":
			pc.Role = gatesim.RoleReset
		default:
			return nil, errors.Errorf("port %s: unknown role %q", name, e.Role)
		}
		cfg[name] = pc
	}
	return cfg, nil
}

// toggleCmd drives uniform random vectors into every data input port for a
// number of clock cycles and reports the switching activity.
var toggleCmd = &cobra.Command{
	Use:   "toggle netlist.json",
	Short: "Estimate switching activity over random input vectors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig(toggleConfig)
		if err != nil {
			return err
		}
		d, err := gatesim.NewDesign(toggleTop, args[0], cfg)
		if err != nil {
			return err
		}

		rng := rand.New(rand.NewSource(toggleSeed))
		var inputs []*gatesim.Port
		for _, n := range d.PortNames() {
			p := d.Port(n)
			if p.Dir() != gatesim.DirOutput && p.Role() == gatesim.RoleNone {
				inputs = append(inputs, p)
			}
		}

		d.Reset()
		for cycle := 0; cycle < toggleCycles; cycle++ {
			for _, p := range inputs {
				rows, cols, width := p.Shape()
				vals := make([][]int64, rows)
				for r := range vals {
					row := make([]int64, cols)
					for c := range row {
						u := rng.Uint64() >> uint(64-width)
						if p.Signed() && width < 64 && u&(1<<uint(width-1)) != 0 {
							u |= ^uint64(0) << uint(width)
						} else if !p.Signed() && width == 64 {
							u >>= 1
						}
						row[c] = int64(u)
					}
					vals[r] = row
				}
				if err := p.Write(vals); err != nil {
					return err
				}
			}
			if err := d.EvalClocked(); err != nil {
				return err
			}
		}

		total, err := d.TotalToggleCount()
		if err != nil {
			return err
		}
		fmt.Printf("cycles: %d\n", toggleCycles)
		fmt.Printf("total toggles: %d\n", total)
		if toggleCycles > 0 {
			fmt.Printf("toggles/cycle: %.2f\n", float64(total)/float64(toggleCycles))
		}
		return nil
	},
}

func init() {
	toggleCmd.Flags().StringVar(&toggleTop, "top", "top", "name of the top module")
	toggleCmd.Flags().StringVar(&toggleConfig, "config", "ports.yaml", "port configuration file")
	toggleCmd.Flags().IntVar(&toggleCycles, "cycles", 1000, "number of clock cycles to run")
	toggleCmd.Flags().Int64Var(&toggleSeed, "seed", 1, "random seed")
	rootCmd.AddCommand(toggleCmd)
}
