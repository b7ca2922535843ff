// Package export curates raw room history into a minimal publishable
// document. It classifies category roots by their leading marker glyph,
// pulls in their reply threads via a transitive closure over the reply
// graph, resolves in-place edits, and merges the result incrementally
// with the export produced by earlier runs.
package export
