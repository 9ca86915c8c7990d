/*
Package domain contains the core data model of twsgraph.

It defines the tabular records read from the scheduler exports, the assembled
Dataset of one network, and the Graph produced from it. This package is kept
pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Record: an ordered header-keyed row of a CSV export.
  - Dataset: the five record sequences of one network plus auxiliary detail data.
  - Node: an internal job or a synthesized external job.
  - Edge: a dependency between two node ids (source runs before target).
  - Graph: an immutable node collection plus edge sequence.
*/
package domain
