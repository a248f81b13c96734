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
	"github.com/minbackup/minbackup/pkg/provenance"
)

// snapshotEntry pairs a snapshot with its derived provenance for listings.
type snapshotEntry struct {
	platform.Snapshot `yaml:",inline"`

	Provenance provenance.Provenance `json:"provenance" yaml:"provenance"`
}

func snapshotCmd() *cli.Command {
	return &cli.Command{
		Name:                  "snapshot",
		EnableShellCompletion: true,
		Usage:                 "Create, list, and delete VM snapshots",
		Commands: []*cli.Command{
			snapshotCreateCmd(),
			snapshotListCmd(),
			snapshotDeleteCmd(),
		},
	}
}

func snapshotCreateCmd() *cli.Command {
	return &cli.Command{
		Name:                  "create",
		EnableShellCompletion: true,
		Usage:                 "Create a snapshot of a VM",
		Description: `Create a snapshot of the named VM.

Without --name the snapshot gets the managed default name
minbackup-YYYYMMDD-HHMMSS (UTC), which retention recognizes as tool-managed.
Snapshots named outside the managed convention are treated as external and
never deleted by retention.

On platforms that cannot snapshot a running VM (multipass), the VM is stopped,
snapshotted, and restarted automatically.

# Examples

Snapshot with the managed default name:
  minbackup snapshot create --vm dev-vm

Named snapshot before a risky change:
  minbackup snapshot create --vm dev-vm --name before-upgrade

Disambiguate a name that exists on two platforms:
  minbackup snapshot create --vm dev-vm --platform virtualbox`,
		Flags: []cli.Flag{
			vmFlag,
			&cli.StringFlag{
				Name:  "name",
				Usage: "Snapshot name (default: managed timestamp name)",
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

			reg, err := discover(ctx, cfg)
			if err != nil {
				return err
			}

			vm, adapter, err := reg.Resolve(ctx, cmd.String("platform"), cmd.String("vm"))
			if err != nil {
				return err
			}

			manager := lifecycle.NewManager(adapter)
			snap, err := manager.CreateManaged(ctx, vm.Name, cmd.String("name"), false)
			if err != nil {
				return err
			}

			return writer.Serialize(snapshotEntry{
				Snapshot:   *snap,
				Provenance: provenance.Classify(snap.Name),
			})
		},
	}
}

func snapshotListCmd() *cli.Command {
	return &cli.Command{
		Name:                  "list",
		EnableShellCompletion: true,
		Usage:                 "List a VM's snapshots",
		Description: `List the snapshots of the named VM in creation order, oldest first, with
each snapshot's derived provenance (Automatic, ToolManaged, or External).

Timestamps are platform-reported where available. Platforms that report no
snapshot timestamps get a time derived from the managed naming convention;
snapshots named outside the convention carry the query time, flagged
estimated.`,
		Flags: []cli.Flag{
			vmFlag,
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

			reg, err := discover(ctx, cfg)
			if err != nil {
				return err
			}

			vm, adapter, err := reg.Resolve(ctx, cmd.String("platform"), cmd.String("vm"))
			if err != nil {
				return err
			}

			snaps, err := adapter.ListSnapshots(ctx, vm.Name)
			if err != nil {
				return err
			}

			entries := make([]snapshotEntry, 0, len(snaps))
			for _, s := range snaps {
				entries = append(entries, snapshotEntry{
					Snapshot:   s,
					Provenance: provenance.Classify(s.Name),
				})
			}
			return writer.Serialize(entries)
		},
	}
}

func snapshotDeleteCmd() *cli.Command {
	return &cli.Command{
		Name:                  "delete",
		EnableShellCompletion: true,
		Usage:                 "Delete one or more snapshots from a VM",
		Description: `Delete the named snapshots from a VM.

The batch is validated upfront: if any named snapshot does not exist, nothing
is deleted and the error lists every missing name. After validation passes,
deletions proceed best-effort and the report enumerates each outcome.

On platforms that separate deletion from storage reclaim (multipass), storage
is reclaimed by default; --keep-storage performs only the delete step.

# Examples

Delete one snapshot:
  minbackup snapshot delete --vm dev-vm --snapshot minbackup-20250610-120000

Delete several at once:
  minbackup snapshot delete --vm dev-vm -s old-1 -s old-2

Mark deleted without reclaiming storage (multipass):
  minbackup snapshot delete --vm dev-vm -s old-1 --keep-storage`,
		Flags: []cli.Flag{
			vmFlag,
			&cli.StringSliceFlag{
				Name:     "snapshot",
				Aliases:  []string{"s"},
				Required: true,
				Usage:    "Snapshot name to delete (can be repeated)",
			},
			&cli.BoolFlag{
				Name:  "keep-storage",
				Usage: "On two-step-delete platforms, mark deleted without reclaiming storage",
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

			reg, err := discover(ctx, cfg)
			if err != nil {
				return err
			}

			vm, adapter, err := reg.Resolve(ctx, cmd.String("platform"), cmd.String("vm"))
			if err != nil {
				return err
			}

			manager := lifecycle.NewManager(adapter)
			rep, err := manager.DeleteMany(ctx, vm.Name,
				cmd.StringSlice("snapshot"), !cmd.Bool("keep-storage"))
			if err != nil {
				return err
			}

			if err := writer.Serialize(rep); err != nil {
				return err
			}
			if failed := rep.Failed(); failed > 0 {
				return fmt.Errorf("%d of %d deletions failed", failed, len(rep.Items))
			}
			return nil
		},
	}
}
