package response

// SourceResponse 检索到的来源片段，按相关性排序
type SourceResponse struct {
	DocumentID    uint   `json:"document_id"`
	DocumentTitle string `json:"document_title"`
	ChunkIndex    int    `json:"chunk_index"`
	Content       string `json:"content"`
}

type ChatSourcesResponse struct {
	Sources []SourceResponse `json:"sources"`

	// 查询是否发生了降级（如改写失败时回退原始查询）
	Degraded bool `json:"degraded,omitempty"`
}
