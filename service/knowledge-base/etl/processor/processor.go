package processor

import (
	"context"

	"rag-chatbot-backend/model"
)

// ETLProcessor 知识文件ETL处理器
type ETLProcessor interface {
	// 判断是否支持传入的文件类型
	CanProcess(fileType model.FileType) bool

	// 执行ETL流程：切分、向量化、写入索引
	// 文档的全部chunk整体写入，失败时索引中不留部分结果
	ExecuteETLPipeline(ctx context.Context, object []byte, doc *model.Document) error
}
