// Package protocol turns batches of wire elements into message chains and
// chains back into wire elements.
//
// Decode runs dispatch, assembly, cleanup, light refine and, for live
// deliveries, deep refine. Encode offers each component to the installed
// units in order.
//
// Ownership boundary:
// - unit registry and dispatch order
// - chain assembly and MessageSource synthesis
// - cleanup rules and legacy captions
// - refinement orchestration and async decode tasks
package protocol
