package api

// FileRecord is one stored document as reported by the backend.
type FileRecord struct {
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
}

// UploadResult is returned by the upload endpoint. Total is expected to equal
// len(Saved) but callers must not rely on it.
type UploadResult struct {
	Saved []FileRecord `json:"saved"`
	Total int          `json:"total"`
}

// IngestResult is returned by the ingest endpoint. Both counters are optional.
type IngestResult struct {
	Vectors         *int `json:"vectors,omitempty"`
	CollectionCount *int `json:"collection_count,omitempty"`
}

// DisplayCount picks the vector count shown after indexing:
// collection_count, then vectors, then 0.
func (r IngestResult) DisplayCount() int {
	if r.CollectionCount != nil {
		return *r.CollectionCount
	}
	if r.Vectors != nil {
		return *r.Vectors
	}
	return 0
}

// ChunkCount reports the number of chunks written by this run.
func (r IngestResult) ChunkCount() int {
	if r.Vectors != nil {
		return *r.Vectors
	}
	return 0
}

// AskRequest is the payload of the ask endpoint.
type AskRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// Passage is a retrieved text fragment with provenance.
type Passage struct {
	Source  string  `json:"source"`
	Page    *int    `json:"page"`
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
}

// AskResult is returned by the ask endpoint.
type AskResult struct {
	Answer    string    `json:"answer"`
	Sources   []string  `json:"sources"`
	Passages  []Passage `json:"passages"`
	Retrieved *int      `json:"retrieved,omitempty"`
}

// RetrievedCount prefers the server's retrieved field and falls back to the
// number of passages returned.
func (r AskResult) RetrievedCount() int {
	if r.Retrieved != nil {
		return *r.Retrieved
	}
	return len(r.Passages)
}

// StatsResult summarises the corpus.
type StatsResult struct {
	CollectionCount *int         `json:"collection_count,omitempty"`
	PDFs            []FileRecord `json:"pdfs"`
}

// VectorCount falls back to 0 when the backend omits the collection count.
func (r StatsResult) VectorCount() int {
	if r.CollectionCount != nil {
		return *r.CollectionCount
	}
	return 0
}

// File is a document queued for upload.
type File struct {
	Name string
	Data []byte
}
