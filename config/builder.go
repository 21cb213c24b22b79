package config

import (
	"fmt"

	"github.com/shreyashguptas/pingboard"
)

// BuildTargets converts parsed configuration into SDK Target values,
// preserving file order.
func BuildTargets(cfg *Config) ([]pingboard.Target, error) {
	targets := make([]pingboard.Target, 0, len(cfg.Targets))

	for i, tc := range cfg.Targets {
		var opts []pingboard.TargetOption
		if tc.ServiceCheck != nil {
			opts = append(opts, pingboard.WithServiceCheck(tc.ServiceCheck.Port, tc.ServiceCheck.MatchHint))
		}

		target, err := pingboard.NewTarget(tc.Name, tc.Address, opts...)
		if err != nil {
			return nil, fmt.Errorf("targets[%d] (%s): %w", i, tc.Name, err)
		}
		targets = append(targets, target)
	}

	return targets, nil
}

// BuildOptions converts parsed configuration into SDK options, including
// the targets built by [BuildTargets].
func BuildOptions(cfg *Config) ([]pingboard.Option, error) {
	targets, err := BuildTargets(cfg)
	if err != nil {
		return nil, err
	}

	return []pingboard.Option{
		pingboard.WithTargets(targets...),
		pingboard.WithPort(cfg.Port),
		pingboard.WithPollInterval(cfg.PollInterval.Duration()),
		pingboard.WithProbeTimeout(cfg.ProbeTimeout.Duration()),
		pingboard.WithServiceTimeout(cfg.ServiceTimeout.Duration()),
		pingboard.WithCopyFeedbackTTL(cfg.CopyFeedbackTTL.Duration()),
	}, nil
}
