package rag

// ResolveScope 决定本次查询的检索范围
// 优先级：请求显式指定的目录 > 会话绑定的目录 > 全局
// 纯函数，sessionFolderID必须是查询时刚从存储读到的值，不允许用缓存
func ResolveScope(requestedFolderID, sessionFolderID *uint) *uint {
	if requestedFolderID != nil {
		return requestedFolderID
	}
	return sessionFolderID
}
