// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ChatModel: Streaming chat and model discovery
//   - TextExtractor: PDF to plain text
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - PromptStore: User-editable prompt templates. Without it, built-in prompts are used.
//   - TranscriptStore: Session recording. Without it, history lives in memory only.
//   - ConfigStore: Persisted settings. Without it, defaults and flags apply.
//   - FileWatcher: Reload on change. Without it, documents are loaded once.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
