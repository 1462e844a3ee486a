package vectorindex

import (
	"errors"
	"fmt"
)

// ErrMissingOwner 过滤条件缺少owner，属于安全性缺陷，必须拒绝而不是兜底
var ErrMissingOwner = errors.New("search filter requires an owner id")

// SearchFilter 检索时的元数据过滤条件
// 只能通过NewSearchFilter构造，保证owner过滤永远存在，不允许在调用处拼接条件
type SearchFilter struct {
	ownerID  int64
	folderID *int64
}

func NewSearchFilter(ownerID uint, folderID *uint) (SearchFilter, error) {
	if ownerID == 0 {
		return SearchFilter{}, ErrMissingOwner
	}

	f := SearchFilter{ownerID: int64(ownerID)}
	if folderID != nil {
		id := int64(*folderID)
		f.folderID = &id
	}
	return f, nil
}

// Expr 渲染Milvus布尔过滤表达式
func (f SearchFilter) Expr() string {
	if f.folderID != nil {
		return fmt.Sprintf("%s == %d && %s == %d", fieldOwnerID, f.ownerID, fieldFolderID, *f.folderID)
	}
	return fmt.Sprintf("%s == %d", fieldOwnerID, f.ownerID)
}

// FolderID 过滤的目录，nil表示全局范围
func (f SearchFilter) FolderID() *int64 {
	return f.folderID
}

func (f SearchFilter) OwnerID() int64 {
	return f.ownerID
}
