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

// vmListing is the serialized result of the vms command.
type vmListing struct {
	VMs []platform.VM `json:"vms" yaml:"vms"`

	// PlatformErrors lists platforms that were discovered but failed to
	// enumerate their VMs.
	PlatformErrors map[platform.Type]string `json:"platformErrors,omitempty" yaml:"platformErrors,omitempty"`

	// Excluded lists platforms that failed their discovery probe.
	Excluded map[platform.Type]string `json:"excluded,omitempty" yaml:"excluded,omitempty"`
}

func vmsCmd() *cli.Command {
	return &cli.Command{
		Name:                  "vms",
		EnableShellCompletion: true,
		Usage:                 "List VMs across all available platforms",
		Description: `List every VM known to the available virtualization platforms.

The set of VMs is rediscovered on every invocation; nothing is cached or
persisted. A VM name that exists on two platforms appears twice, once per
platform. Platforms whose native tool is missing or unresponsive are listed
under "excluded" with the probe error.

# Examples

List all VMs:
  minbackup vms

Include estimated per-snapshot sizes (platforms that support it):
  minbackup vms --size --format json`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "size",
				Usage: "Include estimated per-snapshot size for each VM (approximate)",
			},
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

			vms, failures := reg.ListAllVMs(ctx)

			if cmd.Bool("size") {
				for i := range vms {
					adapter, ok := reg.Adapter(vms[i].Platform)
					if !ok || !adapter.Capabilities().ReportsSize {
						continue
					}
					size, err := adapter.EstimateSize(ctx, vms[i].Name)
					if err != nil {
						continue
					}
					vms[i].EstimatedSizeBytes = &size
				}
			}

			listing := vmListing{VMs: vms}
			if len(failures) > 0 {
				listing.PlatformErrors = failures
			}
			if len(reg.Excluded()) > 0 {
				listing.Excluded = reg.Excluded()
			}
			return writer.Serialize(listing)
		},
	}
}
