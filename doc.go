// Package draft provides copy-on-write drafts over immutable object trees.
//
// A tree is built from three container kinds, Object, List and Map, plus
// plain Go scalars. Produce hands a recipe a draft of a base tree; the
// recipe mutates the draft freely, and Produce returns the next immutable
// tree. Subtrees the recipe never touched are shared with the base by
// identity, and a recipe that changes nothing returns the base itself.
//
// ProduceWithPatches additionally returns RFC 6902 JSON Patches describing
// the change in both directions. The forward patch transforms the base into
// the result; the inverse patch transforms the result back into the base.
//
// Wrap and Unwrap bridge between node trees and plain Go structs, slices
// and maps; struct types are registered with Bind. The store subpackage
// builds a small redux-style state container on top of Produce.
package draft
