// Package textutil normalizes prompt text for storage and search, builds
// token fingerprints for prompt similarity, and sanitizes export file names.
//
// Stored prompts are NFC normalized so that visually identical prompts
// compare equal. Search keys are additionally case folded and have runs of
// whitespace collapsed; the index stores the key next to the original text
// and matches queries against it.
//
// Fingerprints are term-frequency vectors over folded prompt tokens. Prompt
// weighting syntax such as "(word:1.2)" contributes only the word.
package textutil
