package model

// SourceDocument is one corpus entry as loaded from disk or object storage,
// before chunking.
type SourceDocument struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// StoredPassage is one persisted (chunk, embedding) row. The embedding width
// must match the vector column the row is written to.
type StoredPassage struct {
	ID        int64
	Title     string
	Summary   string
	Chunk     string
	Embedding []float32
}

// RetrievedDocument is a read-only projection of a StoredPassage plus the
// cosine distance to the query vector. Lower score means closer.
type RetrievedDocument struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Chunk string  `json:"chunk"`
	Score float64 `json:"similarity_score"`
}
