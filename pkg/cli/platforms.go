/*
Copyright © 2025 MinBackup Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/minbackup/minbackup/pkg/platform"
)

// platformInfo describes one platform's availability and behavior flags.
type platformInfo struct {
	Platform  platform.Type `json:"platform" yaml:"platform"`
	Available bool          `json:"available" yaml:"available"`

	// ProbeError holds the discovery failure for unavailable platforms.
	ProbeError string `json:"probeError,omitempty" yaml:"probeError,omitempty"`

	RequiresStoppedVM bool `json:"requiresStoppedVM" yaml:"requiresStoppedVM"`
	TwoStepDelete     bool `json:"twoStepDelete" yaml:"twoStepDelete"`
	ReportsSize       bool `json:"reportsSize" yaml:"reportsSize"`
}

func platformsCmd() *cli.Command {
	return &cli.Command{
		Name:                  "platforms",
		EnableShellCompletion: true,
		Usage:                 "Show platform availability and capabilities",
		Description: `Probe the known virtualization platforms and report which are usable on
this host, along with their snapshot behavior:

  requiresStoppedVM - the platform cannot snapshot a running VM; minbackup
                      stops it, snapshots, and restores the prior state
  twoStepDelete     - deletion and storage reclaim are separate steps
  reportsSize       - the platform can estimate snapshot sizes`,
		Flags: []cli.Flag{
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			writer, err := newWriter(cmd)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			reg, err := discover(ctx, cfg)
			if err != nil {
				return err
			}

			infos := make([]platformInfo, 0, len(platform.KnownTypes()))
			for _, t := range platform.KnownTypes() {
				if adapter, ok := reg.Adapter(t); ok {
					caps := adapter.Capabilities()
					infos = append(infos, platformInfo{
						Platform:          t,
						Available:         true,
						RequiresStoppedVM: caps.RequiresStoppedVM,
						TwoStepDelete:     caps.TwoStepDelete,
						ReportsSize:       caps.ReportsSize,
					})
					continue
				}
				if reason, ok := reg.Excluded()[t]; ok {
					infos = append(infos, platformInfo{Platform: t, ProbeError: reason})
				}
			}
			return writer.Serialize(infos)
		},
	}
}
