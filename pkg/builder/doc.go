// Package builder turns a Dataset into a dependency Graph.
//
// Building is a pure function of the dataset and the BuildOptions: it never
// mutates its inputs, performs no I/O and yields structurally equal graphs for
// equal inputs. Exclusion propagates to edges through node existence alone:
// an edge is added only when both of its endpoints were registered.
package builder
