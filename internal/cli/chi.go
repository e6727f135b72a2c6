package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sbl8/ssbctf/optics"
)

func chiCmd(a *app) *cobra.Command {
	var c10, c30 float64

	c := &cobra.Command{
		Use:   "chi q [q...]",
		Short: "Print the aberration phase at the given spatial frequencies (1/Å)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ab := a.cfg.Aberrations
			if cmd.Flags().Changed("c10") {
				ab.C10 = c10
			}
			if cmd.Flags().Changed("c30") {
				ab.C30 = c30
			}
			wavelength, err := a.cfg.Wavelength()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, arg := range args {
				q, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid spatial frequency %q: %w", arg, err)
				}
				fmt.Fprintf(out, "%g\t%g\n", q, optics.Chi(q, wavelength, ab))
			}
			return nil
		},
	}

	c.Flags().Float64Var(&c10, "c10", 0, "defocus in Å (overrides config)")
	c.Flags().Float64Var(&c30, "c30", 0, "spherical aberration in Å (overrides config)")
	return c
}
