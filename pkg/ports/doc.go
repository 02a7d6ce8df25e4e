/*
Package ports defines the driven and driving ports (interfaces) of the gamebook mapper.

These interfaces decouple the core logic from external implementations, allowing
the same engine to run over memory, files, Redis, SQLite or Badger, and to be
driven from the CLI, HTTP or MCP.

# Key Interfaces

  - SessionStore: Responsible for persisting and loading session edge logs.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
  - Watchable: Signals that an external edge source changed and should be reloaded.
  - Engine: The per-session operations consumed by the HTTP and MCP adapters.

RunSessionStoreContract is the shared test suite every SessionStore adapter runs.
*/
package ports
