/*
Copyright © 2025 MinBackup Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/minbackup/minbackup/pkg/lifecycle"
	"github.com/minbackup/minbackup/pkg/platform"
	"github.com/minbackup/minbackup/pkg/report"
	"github.com/minbackup/minbackup/pkg/retention"
)

// cleanupResult is the per-VM outcome of a cleanup pass.
type cleanupResult struct {
	VMName   string                 `json:"vmName" yaml:"vmName"`
	Platform platform.Type          `json:"platform" yaml:"platform"`
	Plan     *retention.Plan        `json:"plan,omitempty" yaml:"plan,omitempty"`
	Report   *report.DeletionReport `json:"report,omitempty" yaml:"report,omitempty"`
	Error    string                 `json:"error,omitempty" yaml:"error,omitempty"`
}

// cleanupSummary is the serialized output of the cleanup command.
type cleanupSummary struct {
	KeepCount      int                      `json:"keepCount" yaml:"keepCount"`
	DryRun         bool                     `json:"dryRun" yaml:"dryRun"`
	Results        []cleanupResult          `json:"results" yaml:"results"`
	PlatformErrors map[platform.Type]string `json:"platformErrors,omitempty" yaml:"platformErrors,omitempty"`
}

func cleanupCmd() *cli.Command {
	return &cli.Command{
		Name:                  "cleanup",
		EnableShellCompletion: true,
		Usage:                 "Apply keep-last-N retention to managed snapshots",
		Description: `Apply the keep-last-N retention policy to a VM's managed snapshots, or to
every discovered VM when --vm is omitted.

Only managed snapshots (names under the minbackup- or auto- convention) are
counted and deleted. External snapshots are never touched, no matter how many
accumulate. The newest N managed snapshots are kept; ordering is by creation
time, newest first, with ties broken by name.

With --dry-run the plan is computed and printed but nothing is deleted.

# Examples

Preview what retention would delete everywhere:
  minbackup cleanup --dry-run

Trim one VM down to its 3 newest managed snapshots:
  minbackup cleanup --vm dev-vm --keep 3`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "vm",
				Usage: "VM to clean up (default: all discovered VMs)",
			},
			&cli.IntFlag{
				Name:  "keep",
				Usage: "Number of newest managed snapshots to keep (default: configured retention)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Compute and print the plan without deleting anything",
			},
			platformFlag,
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

			policy := retention.Policy{KeepCount: cfg.SnapshotRetention}
			if cmd.IsSet("keep") {
				policy.KeepCount = int(cmd.Int("keep"))
			}
			if err := policy.Validate(); err != nil {
				return err
			}

			reg, err := discover(ctx, cfg)
			if err != nil {
				return err
			}

			dryRun := cmd.Bool("dry-run")
			summary := cleanupSummary{
				KeepCount: policy.KeepCount,
				DryRun:    dryRun,
			}

			var targets []platform.VM
			if name := cmd.String("vm"); name != "" {
				vm, _, err := reg.Resolve(ctx, cmd.String("platform"), name)
				if err != nil {
					return err
				}
				targets = []platform.VM{*vm}
			} else {
				vms, failures := reg.ListAllVMs(ctx)
				targets = vms
				summary.PlatformErrors = failures
			}

			var failed int
			for _, vm := range targets {
				adapter, ok := reg.Adapter(vm.Platform)
				if !ok {
					continue
				}
				res := cleanupResult{VMName: vm.Name, Platform: vm.Platform}
				plan, rep, err := lifecycle.NewManager(adapter).Cleanup(ctx, vm, policy, dryRun)
				res.Plan = plan
				res.Report = rep
				if err != nil {
					res.Error = err.Error()
					failed++
				} else if rep != nil && rep.Failed() > 0 {
					failed++
				}
				summary.Results = append(summary.Results, res)
			}

			if err := writer.Serialize(summary); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("cleanup failed for %d of %d VMs", failed, len(targets))
			}
			return nil
		},
	}
}
