/*
Package ports defines the driven ports (interfaces) of the planning workflow.

These interfaces decouple the workflow from external implementations, allowing
it to run against different knowledge sources, search APIs, language models and
session caches.

# Key Interfaces

  - KnowledgeBase: Static destination documents (e.g., from Loam or Memory).
  - SearchProvider: One external lookup, {query} -> {text} | error.
  - Completer: A single chat completion against a language model.
  - BundleCache: Per-session reuse of gathered context bundles.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
