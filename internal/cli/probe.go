package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sbl8/ssbctf/core"
	"github.com/sbl8/ssbctf/export"
	"github.com/sbl8/ssbctf/optics"
)

func probeCmd(a *app) *cobra.Command {
	var name string

	c := &cobra.Command{
		Use:   "probe",
		Short: "Build the reciprocal-space probe and save it with a real-space intensity image",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := a.cfg.ProbeParams()
			if err != nil {
				return err
			}
			probe, err := optics.ComplexProbe(a.cfg.SamplingGrid(), params)
			if err != nil {
				return err
			}
			realSpace, err := optics.RealSpaceProbe(probe)
			if err != nil {
				return err
			}

			dir := a.cfg.Output.Dir
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			fieldPath := filepath.Join(dir, name+".ssbf")
			if err := core.SaveField(fieldPath, probe); err != nil {
				return err
			}
			imgPath := filepath.Join(dir, name+"_intensity.png")
			f, err := os.Create(imgPath)
			if err != nil {
				return err
			}
			if err := export.WriteIntensityPNG(f, realSpace); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			a.logger.Info("probe written",
				zap.String("field", fieldPath),
				zap.String("image", imgPath),
				zap.Float64("wavelength", params.Wavelength),
				zap.Float64("q_probe", params.QProbe))
			return nil
		},
	}

	c.Flags().StringVar(&name, "name", "probe", "output file stem")
	return c
}
