// Command helixio manages a comic library's cross-source metadata
// matches and content-based series similarity scores, either directly or
// through the long-running daemon started with `helixio serve`.
package main
