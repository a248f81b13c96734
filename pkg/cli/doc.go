// Package cli implements the command-line interface for the minbackup tool.
//
// # Overview
//
// The minbackup CLI manages VM snapshots uniformly across local virtualization
// platforms (Multipass, VirtualBox, VMware Workstation/Fusion): creating and
// deleting snapshots, applying keep-last-N retention, and controlling the
// recurring snapshot scheduler.
//
// # Commands
//
// vms - List VMs across all available platforms:
//
//	minbackup vms [--size] [--format table|json|yaml]
//
// platforms - Show platform availability and capabilities:
//
//	minbackup platforms
//
// snapshot - Create, list, and delete snapshots:
//
//	minbackup snapshot create --vm NAME [--name SNAPSHOT] [--platform P]
//	minbackup snapshot list --vm NAME [--platform P]
//	minbackup snapshot delete --vm NAME --snapshot S [--snapshot S2] [--keep-storage]
//
// cleanup - Apply retention to managed snapshots:
//
//	minbackup cleanup [--vm NAME] [--keep N] [--dry-run]
//
// schedule - Control the recurring snapshot scheduler:
//
//	minbackup schedule enable [--interval 6h]
//	minbackup schedule disable
//	minbackup schedule status
//	minbackup schedule run
//
// # Global Flags
//
//	--config, -c    Config file path (default: none, built-in defaults)
//	--log-level     Logging verbosity: debug, info, warn, error
//
// # Environment Variables
//
//	LOG_LEVEL                   Set logging verbosity
//	MINBACKUP_CONFIG            Config file path
//	MINBACKUP_PLATFORMS         Comma-separated platform allowlist
//	MINBACKUP_RETENTION         Managed snapshots kept per VM
//	MINBACKUP_TIMEOUT_SECONDS   Per platform-command timeout
//	MINBACKUP_INTERVAL_SECONDS  Default scheduler interval
//	MINBACKUP_STATE_FILE        Scheduler state file path
//
// # Architecture
//
// The CLI uses the urfave/cli/v3 framework and delegates to specialized
// packages:
//   - pkg/registry - platform discovery and VM resolution
//   - pkg/lifecycle - snapshot creation and batch deletion
//   - pkg/retention - keep-last-N plan computation and application
//   - pkg/scheduler - recurring snapshot state machine and daemon loop
//   - pkg/serializer - output formatting
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/minbackup/minbackup/pkg/cli.version=1.0.0'"
package cli
