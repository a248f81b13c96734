// Copyright (c) 2025, MinBackup Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package platform

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/minbackup/minbackup/pkg/defaults"
	"github.com/minbackup/minbackup/pkg/errors"
)

// Runner executes one platform's native tool with a per-invocation timeout
// and a rate limit, and maps execution failures to structured error codes.
// All adapters issue their commands through a Runner so the error taxonomy
// stays uniform across platforms.
type Runner struct {
	tool    string
	timeout time.Duration
	limiter *rate.Limiter
}

// NewRunner creates a Runner for the given tool name. A non-positive timeout
// falls back to the default platform command timeout.
func NewRunner(tool string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = defaults.PlatformCommandTimeout
	}
	return &Runner{
		tool:    tool,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(defaults.PlatformCommandRate), defaults.PlatformCommandBurst),
	}
}

// Tool returns the native tool name this runner invokes.
func (r *Runner) Tool() string {
	return r.tool
}

// Available verifies the tool can be found in PATH.
func (r *Runner) Available() error {
	if _, err := exec.LookPath(r.tool); err != nil {
		return errors.WrapWithContext(errors.ErrCodePlatformUnavailable,
			"platform tool not found in PATH", err,
			map[string]any{"tool": r.tool})
	}
	return nil
}

// Run executes the tool with the given arguments and returns its stdout.
// Stderr is captured and attached to the structured error on failure.
func (r *Runner) Run(ctx context.Context, args ...string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(errors.ErrCodePlatformError, "rate limit wait canceled", err)
	}

	path, err := exec.LookPath(r.tool)
	if err != nil {
		return "", errors.WrapWithContext(errors.ErrCodePlatformUnavailable,
			"platform tool not found in PATH", err,
			map[string]any{"tool": r.tool})
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	slog.Debug("platform command finished",
		"tool", r.tool,
		"args", strings.Join(args, " "),
		"duration", time.Since(start).String(),
		"failed", err != nil)

	if err == nil {
		return stdout.String(), nil
	}

	errCtx := map[string]any{
		"tool":   r.tool,
		"args":   strings.Join(args, " "),
		"stderr": strings.TrimSpace(stderr.String()),
	}

	if runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return "", errors.WrapWithContext(errors.ErrCodePlatformTimeout,
			"platform command timed out", err, errCtx)
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		errCtx["exitCode"] = exitErr.ExitCode()
		return "", errors.WrapWithContext(errors.ErrCodePlatformError,
			"platform command failed", err, errCtx)
	}

	return "", errors.WrapWithContext(errors.ErrCodePlatformError,
		"platform command could not be executed", err, errCtx)
}
