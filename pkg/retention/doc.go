// Package retention computes and executes keep-last-N cleanup of managed
// snapshots.
//
// The engine is split into a pure planning step and an effectful apply step:
//
//	plan, err := retention.Compute(vm, snapshots, policy)
//	rep := retention.Apply(ctx, plan, adapter, dryRun)
//
// Compute partitions a VM's snapshots into keep, delete, and external sets.
// The partition is exact (every input snapshot lands in exactly one set) and
// deterministic: managed snapshots are ranked newest first with name-descending
// tie-breaks, so repeated runs over an unchanged history produce identical
// plans. Externally created snapshots are never deletion candidates.
//
// Apply is best-effort per item: a failed delete is recorded in the report
// and the remaining deletions still run. Dry runs produce the identical
// delete set with zero adapter calls.
package retention
