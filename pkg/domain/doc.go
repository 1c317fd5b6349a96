/*
Package domain contains the shared vocabulary of the Arbor runtime.

It is kept pure and free of I/O so every other package (tree, feedback,
runtime, adapters) can depend on it without pulling in infrastructure.

# Key Entities

  - Level: severity of a feedback message (DEBUG through FATAL).
  - Entry: the persisted form of a scope-less (session) message.
  - Errors: structural errors (DuplicateIDError, CycleError), the fatal
    LifecycleContractViolation and the RuntimeFailure wrapper.
  - LifecycleHooks: observability callbacks fired by the runtime.
  - View, NodeView: serializable results of a render and of a page
    inspection, shared by the HTTP, MCP and CLI surfaces.
*/
package domain
