// Package engine derives dependency stages from a set of task specs and
// executes them stage by stage. Tasks inside a stage fan out concurrently,
// bounded by an optional parallelism cap, and a failed task never aborts the
// run: later tasks still execute and simply see the failure through a missing
// dependency excerpt.
package engine
