// Package provenance classifies snapshots by origin using only the snapshot
// name. The underlying platforms carry no custom metadata fields, so the
// naming convention is the single source of truth: classification is a pure,
// total function over the name and is recomputed on every use, never cached.
//
// Recognized prefixes (case-sensitive, matched against the full name):
//
//	auto...       -> Automatic   (scheduler-created)
//	minbackup...  -> ToolManaged (manually created through the tool)
//	backup...     -> ToolManaged
//	anything else -> External    (never touched by retention)
package provenance
