/*
Copyright © 2025 MinBackup Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/minbackup/minbackup/pkg/config"
	"github.com/minbackup/minbackup/pkg/registry"
	"github.com/minbackup/minbackup/pkg/serializer"
)

// Flags shared across commands.
var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "config file path",
		Sources: cli.EnvVars("MINBACKUP_CONFIG"),
	}

	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "log level (debug, info, warn, error)",
		Sources: cli.EnvVars("LOG_LEVEL"),
		Value:   "info",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   fmt.Sprintf("output format: %s", strings.Join(serializer.SupportedFormats(), ", ")),
		Value:   string(serializer.FormatTable),
	}

	platformFlag = &cli.StringFlag{
		Name:    "platform",
		Aliases: []string{"p"},
		Usage:   "platform hint (multipass, virtualbox, vmware); required when the VM name exists on more than one platform",
	}

	vmFlag = &cli.StringFlag{
		Name:     "vm",
		Required: true,
		Usage:    "VM name",
	}
)

// parseOutputFormat reads and validates the format flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q (supported: %s)",
			f, strings.Join(serializer.SupportedFormats(), ", "))
	}
	return f, nil
}

// newWriter builds a stdout serializer for the command's format flag.
func newWriter(cmd *cli.Command) (*serializer.Writer, error) {
	f, err := parseOutputFormat(cmd)
	if err != nil {
		return nil, err
	}
	return serializer.NewWriter(f, os.Stdout), nil
}

// loadConfig resolves the configuration for a command invocation.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	return config.Load(cmd.String("config"))
}

// discover probes the configured platforms and returns the registry.
func discover(ctx context.Context, cfg *config.Config) (*registry.Registry, error) {
	types, err := cfg.PlatformTypes()
	if err != nil {
		return nil, err
	}
	factory := &registry.DefaultFactory{CommandTimeout: cfg.CommandTimeout()}
	return registry.Discover(ctx, types, factory)
}
