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

package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/minbackup/minbackup/pkg/errors"
	"github.com/minbackup/minbackup/pkg/platform"
)

// Registry holds the adapters that passed their discovery probe, in stable
// platform order, along with the probe failures for the rest.
type Registry struct {
	adapters []platform.Adapter
	byType   map[platform.Type]platform.Adapter
	excluded map[platform.Type]string
}

// Discover probes the requested platforms and returns a registry over those
// whose native tool responded. An empty platform list means all known
// platforms. A failed probe excludes the platform rather than failing
// discovery; the probe error is retained and can be inspected via Excluded.
func Discover(ctx context.Context, types []platform.Type, factory Factory) (*Registry, error) {
	if factory == nil {
		return nil, errors.New(errors.ErrCodeInternal, "registry discovery requires a factory")
	}
	if len(types) == 0 {
		types = platform.KnownTypes()
	}

	reg := &Registry{
		byType:   make(map[platform.Type]platform.Adapter),
		excluded: make(map[platform.Type]string),
	}

	for _, t := range types {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, "discovery canceled", err)
		}

		adapter, err := factory.New(t)
		if err != nil {
			return nil, err
		}

		if err := adapter.Probe(ctx); err != nil {
			slog.Debug("platform excluded", "platform", t, "error", err)
			reg.excluded[t] = err.Error()
			continue
		}

		reg.byType[t] = adapter
	}

	// Stable order regardless of the order types were requested in.
	for _, t := range platform.KnownTypes() {
		if a, ok := reg.byType[t]; ok {
			reg.adapters = append(reg.adapters, a)
		}
	}

	slog.Debug("platform discovery complete",
		"available", len(reg.adapters), "excluded", len(reg.excluded))

	return reg, nil
}

// Adapters returns the discovered adapters in stable platform order.
func (r *Registry) Adapters() []platform.Adapter {
	return r.adapters
}

// Adapter returns the discovered adapter for the given platform, if any.
func (r *Registry) Adapter(t platform.Type) (platform.Adapter, bool) {
	a, ok := r.byType[t]
	return a, ok
}

// Excluded returns the platforms that failed their discovery probe, mapped to
// the probe error text.
func (r *Registry) Excluded() map[platform.Type]string {
	return r.excluded
}

// ListAllVMs queries every discovered platform concurrently and returns the
// union of their VMs. A failing platform does not hide the others: its VMs are
// simply absent and the failure is reported in the returned map, keyed by
// platform. VMs are never merged across platforms; a name that exists on two
// platforms yields two entries.
func (r *Registry) ListAllVMs(ctx context.Context) ([]platform.VM, map[platform.Type]string) {
	var mu sync.Mutex
	vms := []platform.VM{}
	failures := make(map[platform.Type]string)

	g, gctx := errgroup.WithContext(ctx)
	for _, adapter := range r.adapters {
		adapter := adapter
		g.Go(func() error {
			list, err := adapter.ListVMs(gctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("platform VM listing failed",
					"platform", adapter.Type(), "error", err)
				failures[adapter.Type()] = err.Error()
				return nil
			}
			vms = append(vms, list...)
			return nil
		})
	}
	_ = g.Wait() // per-platform errors are collected, never propagated

	sort.Slice(vms, func(i, j int) bool {
		if vms[i].Platform != vms[j].Platform {
			return vms[i].Platform < vms[j].Platform
		}
		return vms[i].Name < vms[j].Name
	})

	return vms, failures
}

// Resolve maps a VM name, with an optional platform hint, to the single
// (VM, adapter) pair that owns it.
//
// With a hint the name is looked up on that platform only; an unknown or
// undiscovered platform fails with UNKNOWN_PLATFORM and a missing VM with
// VM_NOT_FOUND. Without a hint every discovered platform is searched: exactly
// one match resolves, zero fail with VM_NOT_FOUND, and more than one fails
// with AMBIGUOUS_VM listing the matching platforms so the caller can retry
// with a hint.
func (r *Registry) Resolve(ctx context.Context, hint, vmName string) (*platform.VM, platform.Adapter, error) {
	if hint != "" {
		t, err := platform.ParseType(hint)
		if err != nil {
			return nil, nil, err
		}
		adapter, ok := r.byType[t]
		if !ok {
			return nil, nil, errors.NewWithContext(errors.ErrCodeUnknownPlatform,
				"platform not available on this host",
				map[string]any{"platform": string(t), "probeError": r.excluded[t]})
		}
		vm, err := findVM(ctx, adapter, vmName)
		if err != nil {
			return nil, nil, err
		}
		return vm, adapter, nil
	}

	type match struct {
		vm      *platform.VM
		adapter platform.Adapter
	}
	var matches []match
	failed := make(map[string]string)

	for _, adapter := range r.adapters {
		vm, err := findVM(ctx, adapter, vmName)
		switch {
		case err == nil:
			matches = append(matches, match{vm: vm, adapter: adapter})
		case errors.IsCode(err, errors.ErrCodeVMNotFound):
			// keep looking
		default:
			// A platform that cannot answer right now must not mask a match
			// elsewhere, but it is reported if the name resolves nowhere.
			failed[string(adapter.Type())] = err.Error()
		}
	}

	switch len(matches) {
	case 1:
		return matches[0].vm, matches[0].adapter, nil
	case 0:
		errCtx := map[string]any{"vm": vmName}
		if len(failed) > 0 {
			errCtx["unqueriedPlatforms"] = failed
		}
		return nil, nil, errors.NewWithContext(errors.ErrCodeVMNotFound,
			"VM not found on any available platform", errCtx)
	default:
		platforms := make([]string, 0, len(matches))
		for _, m := range matches {
			platforms = append(platforms, string(m.adapter.Type()))
		}
		return nil, nil, errors.NewWithContext(errors.ErrCodeAmbiguousVM,
			"VM name exists on multiple platforms, specify one",
			map[string]any{"vm": vmName, "platforms": platforms})
	}
}

func findVM(ctx context.Context, adapter platform.Adapter, vmName string) (*platform.VM, error) {
	vms, err := adapter.ListVMs(ctx)
	if err != nil {
		return nil, err
	}
	for i := range vms {
		if vms[i].Name == vmName {
			return &vms[i], nil
		}
	}
	return nil, errors.NewWithContext(errors.ErrCodeVMNotFound,
		"VM not found", map[string]any{
			"vm":       vmName,
			"platform": string(adapter.Type()),
		})
}
