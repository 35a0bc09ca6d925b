// Package tsclog implements a per-CPU logger that timestamps every pushed
// operation, and a LoggedObject policy that, on synchronize, k-way merges
// every CPU's pending operations into one globally TSC-ordered sequence and
// runs them.
package tsclog
