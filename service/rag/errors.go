package rag

import "errors"

// ErrUpstreamUnavailable 上游依赖（LLM、embedding、向量索引）暂时不可用
// 调用方可从第一步起重试整个查询流程，不存在单步重试
var ErrUpstreamUnavailable = errors.New("upstream service unavailable, retry the query")
