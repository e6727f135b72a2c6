package engine

import (
	"github.com/google/uuid"

	"github.com/sbl8/ssbctf/config"
)

// JobsFromConfig expands the sweep section into one Job per (C10, C30)
// pair. Empty sweep lists fall back to the base aberrations, so a config
// without a sweep yields a single job.
func JobsFromConfig(cfg config.Config) ([]Job, error) {
	params, err := cfg.ProbeParams()
	if err != nil {
		return nil, err
	}
	qMax, err := cfg.QMax()
	if err != nil {
		return nil, err
	}

	c10s := cfg.Sweep.C10
	if len(c10s) == 0 {
		c10s = []float64{cfg.Aberrations.C10}
	}
	c30s := cfg.Sweep.C30
	if len(c30s) == 0 {
		c30s = []float64{cfg.Aberrations.C30}
	}

	jobs := make([]Job, 0, len(c10s)*len(c30s))
	for _, c10 := range c10s {
		for _, c30 := range c30s {
			p := params
			p.Aberrations.C10 = c10
			p.Aberrations.C30 = c30
			jobs = append(jobs, Job{
				ID:     uuid.NewString(),
				Grid:   cfg.SamplingGrid(),
				Params: p,
				QMax:   qMax,
			})
		}
	}
	return jobs, nil
}
