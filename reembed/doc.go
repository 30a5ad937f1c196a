// Package reembed provides functionality for reembedding existing content
// records with a new or updated embedding model.
//
// Vectors from different embedding models are never comparable, so changing
// the configured model invalidates every stored vector. This package walks
// the whole database in batches, generates fresh embeddings, normalizes
// them, retags each record with the new model name, and reports progress
// along the way.
package reembed
