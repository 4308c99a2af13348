// Package engine contains the per-biome ecology simulation: resource
// regeneration, two-phase harvesting, and the egg/lushness feedback loop,
// sequenced once per turn by the Simulator and driven in real time by the
// Engine's event dispatch loop.
//
// ARCHITECTURAL RULE: only the Simulator and its systems mutate Biome state.
// Everything else (network, storage, API) reads snapshots or appends events.
package engine
