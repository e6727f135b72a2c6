package cli

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/sbl8/ssbctf/core"
	"github.com/sbl8/ssbctf/export"
	"github.com/sbl8/ssbctf/optics"
	"github.com/sbl8/ssbctf/ssb"
)

func ctfCmd(a *app) *cobra.Command {
	var (
		probePath string
		name      string
	)

	c := &cobra.Command{
		Use:   "ctf",
		Short: "Compute the SSB contrast transfer function",
		Long: `Computes the SSB transfer function of the configured probe, or of a
probe previously written by "ssbctf probe" when --probe is given, and writes
the formats listed under output.formats.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				probe core.Field
				err   error
			)
			if probePath != "" {
				probe, err = core.LoadField(probePath)
			} else {
				var params optics.ProbeParams
				params, err = a.cfg.ProbeParams()
				if err == nil {
					probe, err = optics.ComplexProbe(a.cfg.SamplingGrid(), params)
				}
			}
			if err != nil {
				return err
			}

			qMax, err := a.cfg.QMax()
			if err != nil {
				return err
			}

			grid := probe.Grid()
			q := grid.Q()
			start := time.Now()
			ctf, err := ssb.CTF(cmd.Context(), probe, q, qMax, ssb.Options{Workers: a.cfg.SSB.Workers})
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			bin := a.cfg.SSB.ProfileBin
			if bin <= 0 {
				bin = grid.ReciprocalSampling()
			}
			profile, err := ssb.RadialProfile(ctf, q, bin)
			if err != nil {
				return err
			}

			paths, err := export.WriteAll(a.cfg.Output.Dir, name, export.Result{
				Probe:   probe,
				CTF:     ctf,
				Profile: profile,
			}, a.cfg.Output.Formats)
			if err != nil {
				return err
			}

			a.logger.Info("ctf computed",
				zap.Int("n", grid.N),
				zap.Float64("q_max", qMax),
				zap.Float64("ctf_max", mat.Max(ctf)),
				zap.Duration("elapsed", elapsed),
				zap.Strings("files", paths))
			return nil
		},
	}

	c.Flags().StringVar(&probePath, "probe", "", "use a saved probe field instead of the configured one")
	c.Flags().StringVar(&name, "name", "ctf", "output file stem")
	return c
}
