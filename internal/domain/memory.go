package domain

import "encoding/json"

// KeyPrefix namespaces every key the service writes to the database.
const KeyPrefix = "farepath:"

// Memory collection names. Queries and responses are embedded into two
// independent collections; similarity lookups run against responses.
const (
	CollectionQueries   = "queries"
	CollectionResponses = "responses"
)

// EmbeddingRecord is an append-only vector record. Created once, never mutated.
type EmbeddingRecord struct {
	ID       string
	Vector   []float32
	Document string
	Metadata map[string]string
}

// RecordHit is a raw nearest-neighbor match from a collection. Score is the
// cosine distance reported by the index: lower means more similar.
type RecordHit struct {
	ID       string
	Score    float64
	Document string
	Metadata map[string]string
}

// SimilarityResult is a single nearest-neighbor hit against the responses
// collection, with the stored document decoded back into JSON.
type SimilarityResult struct {
	Response json.RawMessage   `json:"response"`
	Metadata map[string]string `json:"metadata"`
	Score    float64           `json:"similarity_score"`
}
