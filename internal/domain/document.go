package domain

// AggregatedDocument is the parsed CV/JD record produced by the upstream
// extraction stage. It is read-only input to the vectorization pipeline.
type AggregatedDocument struct {
	CandidateID string         `json:"candidate_id"`
	Source      string         `json:"source"`
	Sections    []Section      `json:"sections"`
	Extraction  map[string]any `json:"extraction"`
}

// Section is one sub-unit of an aggregated document. Order within the parent
// document is meaningful and preserved through the pipeline.
type Section struct {
	Text       string `json:"text"`
	Section    string `json:"section"`
	Subsection string `json:"subsection"`
	PageStart  *int   `json:"page_start,omitempty"`
	PageEnd    *int   `json:"page_end,omitempty"`
}

// Routing holds normalized facet fields (skills, industries, alma mater)
// attached to records to support filtered search.
type Routing struct {
	SkillsNorm     []string
	AlmaMater      string
	IndustriesNorm []string
}

// DocumentRecord is the persisted whole-document object. Identity is the
// content hash, so re-indexing identical text under the same model overwrites
// in place.
type DocumentRecord struct {
	Hash        string
	Filename    string
	FullText    string
	CandidateID string
	Source      string
	Routing     Routing
	Extraction  map[string]any
	EmbedModel  string
	EmbedHash   string
	Vector      []float32 // empty when the coarse document embedding failed
}

// SectionRecord is one persisted, independently embedded section of a document.
type SectionRecord struct {
	ParentHash string
	Section    string
	Subsection string
	Text       string
	PageStart  *int
	PageEnd    *int
	Vector     []float32
	Model      string
	EmbedHash  string
	Routing    Routing
}

// VectorizeResult summarizes one pipeline run. It is returned to the caller
// and never persisted.
type VectorizeResult struct {
	DocumentSHA       string `json:"document_sha"`
	DocumentVectorDim int    `json:"document_vector_dim"`
	SectionsIndexed   int    `json:"sections_indexed"`
	Model             string `json:"model"`
}

// UpsertResult is the outcome of a single store write. A zero value is a
// rejection with no reason, so constructors below should be used.
type UpsertResult struct {
	OK    bool
	Error string
}

// UpsertOK reports a confirmed write.
func UpsertOK() UpsertResult { return UpsertResult{OK: true} }

// UpsertFailed reports a rejected write with a reason.
func UpsertFailed(reason string) UpsertResult { return UpsertResult{Error: reason} }
