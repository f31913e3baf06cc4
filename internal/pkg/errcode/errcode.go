package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrInternal
	ErrTooMany
	ErrUnsupportedProvider
	ErrEmbeddingFailed
	ErrGenerationFailed
	ErrCredentialFailed
	ErrDimensionMismatch
	ErrRetrievalFailed
	ErrIngestFailed
)
