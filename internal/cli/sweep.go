package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sbl8/ssbctf/engine"
	"github.com/sbl8/ssbctf/export"
)

func sweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Compute the CTF for every aberration combination in the sweep section",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobs, err := engine.JobsFromConfig(a.cfg)
			if err != nil {
				return err
			}

			opts := engine.DefaultOptions()
			if a.cfg.Sweep.Workers > 0 {
				opts.Workers = a.cfg.Sweep.Workers
			}
			if a.cfg.SSB.Workers > 0 {
				opts.CTFWorkers = a.cfg.SSB.Workers
			}
			opts.ProfileBin = a.cfg.SSB.ProfileBin

			a.logger.Info("sweep started", zap.Int("jobs", len(jobs)), zap.Int("workers", opts.Workers))
			eng := engine.NewEngine(opts, a.logger)
			results, err := eng.Run(cmd.Context(), jobs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "job\tc10\tc30\tfiles")
			for i, res := range results {
				name := fmt.Sprintf("sweep_%03d", i)
				paths, err := export.WriteAll(a.cfg.Output.Dir, name, export.Result{
					Probe:   res.Probe,
					CTF:     res.CTF,
					Profile: res.Profile,
				}, a.cfg.Output.Formats)
				if err != nil {
					return err
				}
				ab := res.Job.Params.Aberrations
				fmt.Fprintf(out, "%s\t%g\t%g\t%d\n", res.Job.ID, ab.C10, ab.C30, len(paths))
			}

			stats := eng.Stats()
			a.logger.Info("sweep finished",
				zap.Int64("jobs", stats.TotalJobs),
				zap.Duration("average_latency", stats.AverageLatency))
			return nil
		},
	}
}
