// Package entity 定义领域实体
package entity

// SearchDocument 搜索文档
// 由可索引实体针对某个索引确定性地派生，字段值必须可 JSON 序列化
type SearchDocument map[string]any

// DocumentSource 文档来源能力接口
// 任何可以进入搜索索引的实体类型显式实现该接口
type DocumentSource interface {
	// SearchObjectID 返回实体的稳定标识，未持久化时返回空串
	SearchObjectID() string
	// SearchFields 返回该索引候选字段名到当前值的映射
	SearchFields(index string) map[string]any
}

// UpdateStrategy 更新策略
type UpdateStrategy string

const (
	// UpdateStrategyFull 始终发送完整文档，以载荷大小换一致性
	UpdateStrategyFull UpdateStrategy = "full"
	// UpdateStrategyPartial 只发送请求字段中通过清洗的子集
	UpdateStrategyPartial UpdateStrategy = "partial"
)

// ParseUpdateStrategy 解析更新策略，未知值回退为 full
func ParseUpdateStrategy(s string) UpdateStrategy {
	if s == string(UpdateStrategyPartial) {
		return UpdateStrategyPartial
	}
	return UpdateStrategyFull
}

// 批量操作类型
const (
	ActionIndex  = "index"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// SearchAction 引擎批量提交兼容的操作记录
type SearchAction struct {
	Index  string         `json:"_index"`
	OpType string         `json:"_op_type"`
	ID     string         `json:"_id"`
	Source SearchDocument `json:"_source,omitempty"`
	Doc    SearchDocument `json:"doc,omitempty"`
}
