package vectorindex

import (
	"context"
	"fmt"
	"rag-chatbot-backend/config"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
)

const (
	// VectorDim 与embedding模型输出维度一致
	VectorDim = 1024

	fieldText       = "text"
	fieldVector     = "vector"
	fieldDocumentID = "document_id"
	fieldOwnerID    = "owner_id"
	fieldFolderID   = "folder_id"
	fieldChunkIndex = "chunk_index"
	fieldTitle      = "title"
)

// IndexedChunk 待写入索引的chunk及其元数据
// FolderID为0表示文档不在任何目录内
type IndexedChunk struct {
	Text       string
	Vector     []float32
	DocumentID uint
	OwnerID    uint
	FolderID   uint
	ChunkIndex int
	Title      string
}

type SearchResult struct {
	Text       string
	DocumentID uint
	FolderID   uint
	ChunkIndex int
	Title      string
	Score      float32
}

type SearchParams struct {
	// 最终返回的结果数
	K int

	// MMR重排前取回的近邻数
	FetchK int

	// 相关性与多样性的权衡系数
	Lambda float64
}

func DefaultSearchParams() SearchParams {
	return SearchParams{K: 8, FetchK: 20, Lambda: 0.5}
}

// ChunkIndex 基于Milvus的chunk向量索引
type ChunkIndex struct {
	client     *milvusclient.Client
	collection string
}

func NewChunkIndex(ctx context.Context) (*ChunkIndex, error) {
	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: config.Cfg.Milvus.Endpoint,
		APIKey:  config.Cfg.Milvus.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %v", err)
	}

	return &ChunkIndex{
		client:     client,
		collection: config.Cfg.Milvus.CollectionName,
	}, nil
}

// Insert 写入一个文档的全部chunk
// 一个文档的chunk必须在同一次调用中写入，保证对检索的可见性是整体的
func (idx *ChunkIndex) Insert(ctx context.Context, chunks []IndexedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, 0, len(chunks))
	vectors := make([][]float32, 0, len(chunks))
	documentIDs := make([]int64, 0, len(chunks))
	ownerIDs := make([]int64, 0, len(chunks))
	folderIDs := make([]int64, 0, len(chunks))
	chunkIndexes := make([]int64, 0, len(chunks))
	titles := make([]string, 0, len(chunks))

	for _, chunk := range chunks {
		if chunk.OwnerID == 0 || chunk.DocumentID == 0 {
			return fmt.Errorf("chunk metadata missing owner or document id: %+v", chunk)
		}
		texts = append(texts, chunk.Text)
		vectors = append(vectors, chunk.Vector)
		documentIDs = append(documentIDs, int64(chunk.DocumentID))
		ownerIDs = append(ownerIDs, int64(chunk.OwnerID))
		folderIDs = append(folderIDs, int64(chunk.FolderID))
		chunkIndexes = append(chunkIndexes, int64(chunk.ChunkIndex))
		titles = append(titles, chunk.Title)
	}

	columns := []column.Column{
		column.NewColumnVarChar(fieldText, texts),
		column.NewColumnFloatVector(fieldVector, VectorDim, vectors),
		column.NewColumnInt64(fieldDocumentID, documentIDs),
		column.NewColumnInt64(fieldOwnerID, ownerIDs),
		column.NewColumnInt64(fieldFolderID, folderIDs),
		column.NewColumnInt64(fieldChunkIndex, chunkIndexes),
		column.NewColumnVarChar(fieldTitle, titles),
	}

	insertOption := milvusclient.NewColumnBasedInsertOption(idx.collection).WithColumns(columns...)
	if _, err := idx.client.Insert(ctx, insertOption); err != nil {
		return fmt.Errorf("error inserting chunks: %v", err)
	}
	return nil
}

// Search 取回FetchK个近邻后用MMR重排，返回至多K个结果，按选中顺序排列
func (idx *ChunkIndex) Search(ctx context.Context, queryVector []float32, params SearchParams, filter SearchFilter) ([]SearchResult, error) {
	if params.FetchK < params.K {
		params.FetchK = params.K
	}

	searchOption := milvusclient.NewSearchOption(idx.collection, params.FetchK, []entity.Vector{entity.FloatVector(queryVector)}).
		WithANNSField(fieldVector).
		WithFilter(filter.Expr()).
		WithOutputFields(fieldText, fieldVector, fieldDocumentID, fieldFolderID, fieldChunkIndex, fieldTitle)

	resultSets, err := idx.client.Search(ctx, searchOption)
	if err != nil {
		return nil, fmt.Errorf("error searching chunks: %v", err)
	}
	if len(resultSets) == 0 {
		return nil, nil
	}

	rs := resultSets[0]
	candidates, err := parseResultSet(&rs)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(candidates))
	for i := range candidates {
		vectors[i] = candidates[i].vector
	}

	results := make([]SearchResult, 0, params.K)
	for _, i := range maximalMarginalRelevance(queryVector, vectors, params.Lambda, params.K) {
		results = append(results, candidates[i].SearchResult)
	}
	return results, nil
}

// DeleteByDocument 删除一个文档的全部chunk
func (idx *ChunkIndex) DeleteByDocument(ctx context.Context, ownerID, documentID uint) error {
	if ownerID == 0 || documentID == 0 {
		return fmt.Errorf("delete requires owner and document id")
	}

	expr := fmt.Sprintf("%s == %d && %s == %d", fieldOwnerID, int64(ownerID), fieldDocumentID, int64(documentID))
	deleteOption := milvusclient.NewDeleteOption(idx.collection).WithExpr(expr)
	if _, err := idx.client.Delete(ctx, deleteOption); err != nil {
		return fmt.Errorf("error deleting chunks of document %d: %v", documentID, err)
	}
	return nil
}

func (idx *ChunkIndex) Close(ctx context.Context) error {
	return idx.client.Close(ctx)
}

type candidate struct {
	SearchResult
	vector []float32
}

func parseResultSet(rs *milvusclient.ResultSet) ([]candidate, error) {
	vectorColumn, ok := rs.GetColumn(fieldVector).(*column.ColumnFloatVector)
	if !ok {
		return nil, fmt.Errorf("unexpected vector column type in search result")
	}
	vectors := vectorColumn.Data()

	candidates := make([]candidate, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		text, err := rs.GetColumn(fieldText).GetAsString(i)
		if err != nil {
			return nil, fmt.Errorf("error reading text column: %v", err)
		}
		documentID, err := rs.GetColumn(fieldDocumentID).GetAsInt64(i)
		if err != nil {
			return nil, fmt.Errorf("error reading document_id column: %v", err)
		}
		folderID, err := rs.GetColumn(fieldFolderID).GetAsInt64(i)
		if err != nil {
			return nil, fmt.Errorf("error reading folder_id column: %v", err)
		}
		chunkIndex, err := rs.GetColumn(fieldChunkIndex).GetAsInt64(i)
		if err != nil {
			return nil, fmt.Errorf("error reading chunk_index column: %v", err)
		}
		title, err := rs.GetColumn(fieldTitle).GetAsString(i)
		if err != nil {
			return nil, fmt.Errorf("error reading title column: %v", err)
		}

		c := candidate{
			SearchResult: SearchResult{
				Text:       text,
				DocumentID: uint(documentID),
				FolderID:   uint(folderID),
				ChunkIndex: int(chunkIndex),
				Title:      title,
			},
			vector: vectors[i],
		}
		if i < len(rs.Scores) {
			c.Score = rs.Scores[i]
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}
