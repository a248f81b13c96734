/*
Copyright © 2025 MinBackup Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/minbackup/minbackup/pkg/config"
	"github.com/minbackup/minbackup/pkg/registry"
	"github.com/minbackup/minbackup/pkg/retention"
	"github.com/minbackup/minbackup/pkg/scheduler"
)

func scheduleCmd() *cli.Command {
	return &cli.Command{
		Name:                  "schedule",
		EnableShellCompletion: true,
		Usage:                 "Manage the recurring snapshot schedule",
		Description: `Manage the recurring snapshot schedule executed by minbackupd.

Enabling or disabling the schedule updates the persisted state file; a
running daemon picks the change up on its next wake without a restart.`,
		Commands: []*cli.Command{
			scheduleEnableCmd(),
			scheduleDisableCmd(),
			scheduleStatusCmd(),
			scheduleRunCmd(),
		},
	}
}

// newScheduler builds a scheduler over the discovered registry and the
// configured state file and retention policy.
func newScheduler(ctx context.Context, cfg *config.Config) (*scheduler.Scheduler, error) {
	reg, err := discover(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := scheduler.NewFileStore(cfg.StateFile)
	policy := retention.Policy{KeepCount: cfg.SnapshotRetention}
	return scheduler.New(reg, store, policy), nil
}

// scheduleHold is newScheduler without platform discovery, for operations
// that only touch persisted state.
func scheduleHold(cfg *config.Config) *scheduler.Scheduler {
	store := scheduler.NewFileStore(cfg.StateFile)
	policy := retention.Policy{KeepCount: cfg.SnapshotRetention}
	return scheduler.New(&registry.Registry{}, store, policy)
}

func scheduleEnableCmd() *cli.Command {
	return &cli.Command{
		Name:                  "enable",
		EnableShellCompletion: true,
		Usage:                 "Enable the recurring schedule",
		Description: `Enable the recurring schedule, optionally setting the interval.

Intervals accept Go duration syntax (4h, 90m), day units (1d, 0.5d), or a
bare number of seconds (3600). Without --interval the previously persisted
interval is kept, falling back to the 6h default.

# Examples

Enable with the persisted interval:
  minbackup schedule enable

Snapshot every 12 hours:
  minbackup schedule enable --interval 12h`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Time between scheduled runs (e.g. 4h, 90m, 1d, 3600)",
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

			state, err := scheduleHold(cfg).Enable(cmd.String("interval"))
			if err != nil {
				return err
			}
			return writer.Serialize(state)
		},
	}
}

func scheduleDisableCmd() *cli.Command {
	return &cli.Command{
		Name:                  "disable",
		EnableShellCompletion: true,
		Usage:                 "Disable the recurring schedule",
		Description: `Disable the recurring schedule. The interval and last-run time are
preserved, so a later enable resumes where the schedule left off. A run
already in progress is not interrupted.`,
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

			state, err := scheduleHold(cfg).Disable()
			if err != nil {
				return err
			}
			return writer.Serialize(state)
		},
	}
}

func scheduleStatusCmd() *cli.Command {
	return &cli.Command{
		Name:                  "status",
		EnableShellCompletion: true,
		Usage:                 "Show schedule state and next run time",
		Description: `Show whether the schedule is enabled, its interval, the last and next run
times, and aggregate VM and managed-snapshot counts across available
platforms.`,
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

			sched, err := newScheduler(ctx, cfg)
			if err != nil {
				return err
			}

			status, err := sched.Status(ctx)
			if err != nil {
				return err
			}
			return writer.Serialize(status)
		},
	}
}

func scheduleRunCmd() *cli.Command {
	return &cli.Command{
		Name:                  "run",
		EnableShellCompletion: true,
		Usage:                 "Trigger a scheduled run immediately",
		Description: `Run one scheduled snapshot pass immediately, outside the normal cadence.

The schedule must be enabled. The run snapshots every discovered VM, applies
retention, records the run time so the next scheduled run is pushed out by
one full interval, and reports the per-VM outcome. VM failures are isolated;
the pass continues across the remaining VMs.`,
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

			sched, err := newScheduler(ctx, cfg)
			if err != nil {
				return err
			}

			run, err := sched.RunNow(ctx)
			if err != nil {
				return err
			}

			if err := writer.Serialize(run); err != nil {
				return err
			}
			if failed := run.Failed(); failed > 0 {
				return fmt.Errorf("scheduled run failed for %d of %d VMs", failed, len(run.VMs))
			}
			return nil
		},
	}
}
