/*
Package ports defines the boundary interfaces of twsgraph.

These interfaces decouple the pipeline from where inputs come from and where
workspaces are kept, so the same core runs behind the CLI, the HTTP API and the
MCP server.

# Key Interfaces

  - Source: a named byte source (a file on disk, an uploaded part, a test fixture).
  - WorkspaceStore: keeps loaded datasets and their last built graph.
  - DistributedLocker: serializes workspace mutation across replicas.
*/
package ports
