/*
Package ports defines the interfaces between the arbor runtime and its
collaborators.

# Key Interfaces

  - SessionLog: persists scope-less feedback between turns (memory, file, Redis).
  - PageSource: builds page trees from definitions (layouts on disk or in Loam).
  - Renderer: receives the render pass of a page.
  - DistributedLocker: serializes turns of one session across instances.
  - PageEngine: what the HTTP and MCP adapters drive.

RunSessionLogContract verifies SessionLog implementations; every adapter runs it.
*/
package ports
