// Package cli provides the interactive journal command-line client.
//
// It wires configuration, the encrypted store, the sync engine and the
// LLM proxy client into a REPL. Typical flow: prompt for the password,
// unlock the store, start background sync, and execute user commands.
//
// Key features:
//   - Chat with the assistant; turns are persisted as messages
//   - Add and list notes and messages by day
//   - Generate the structured daily summary
//   - Export / import the full dataset as JSON
//   - Manual sync, sync status, and a typed-confirmation wipe
//
// The REPL is started via App.Root(ctx), which blocks until the user
// exits.
package cli
