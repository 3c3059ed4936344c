// Package service 提供领域服务
package service

import (
	"encoding/json"
	"fmt"
	"slices"

	"search-sync-svc/internal/domain/entity"
	"search-sync-svc/pkg/errors"
)

// MappingResolver 提供索引映射声明的字段列表，来源由外部维护
type MappingResolver interface {
	IndexProperties(index string) []string
}

// DocumentBuilder 文档构建器
// 把可索引实体转换为完整搜索文档，以及按更新策略生成局部文档
type DocumentBuilder struct {
	mappings MappingResolver
	strategy entity.UpdateStrategy
}

// NewDocumentBuilder 创建文档构建器
func NewDocumentBuilder(mappings MappingResolver, strategy entity.UpdateStrategy) *DocumentBuilder {
	return &DocumentBuilder{
		mappings: mappings,
		strategy: strategy,
	}
}

// Strategy 返回配置的更新策略
func (b *DocumentBuilder) Strategy() entity.UpdateStrategy {
	return b.strategy
}

// IsFieldSerializable 判断字段当前值能否编码为 JSON
// 这是运行时按值的检查：同名字段在一个实例上可序列化，在另一个实例上未必
func IsFieldSerializable(src entity.DocumentSource, index, field string) bool {
	val, ok := src.SearchFields(index)[field]
	if !ok {
		return false
	}
	return valueSerializable(val)
}

// valueSerializable 尝试编码单个值
func valueSerializable(v any) bool {
	_, err := json.Marshal(v)
	return err == nil
}

// BuildDocument 构建完整搜索文档
// 实体类型未实现 DocumentSource 时报 NotImplemented，不会静默返回残缺数据
// 文档只包含同时满足两个条件的字段：出现在索引映射中、当前值可序列化
func (b *DocumentBuilder) BuildDocument(obj any, index string) (entity.SearchDocument, error) {
	src, ok := obj.(entity.DocumentSource)
	if !ok {
		return nil, errors.ErrNotImplemented.WithDetail(fmt.Sprintf("%T", obj))
	}

	props := b.mappings.IndexProperties(index)
	doc := entity.SearchDocument{}
	for name, val := range src.SearchFields(index) {
		if props != nil && !slices.Contains(props, name) {
			continue
		}
		if !valueSerializable(val) {
			continue
		}
		doc[name] = val
	}
	return doc, nil
}

// CleanUpdateFields 清洗局部更新的请求字段
// 不在索引映射中的字段静默丢弃（调用方笔误，无害）；
// 在映射中但值不可序列化的字段报 InvalidUpdate（数据与文档形状不符，必须失败）
// 这两种情况的不对称处理是刻意的，不要合并成同一种错误
func (b *DocumentBuilder) CleanUpdateFields(src entity.DocumentSource, index string, updateFields []string) ([]string, error) {
	props := b.mappings.IndexProperties(index)
	fields := src.SearchFields(index)

	cleaned := make([]string, 0, len(updateFields))
	for _, f := range updateFields {
		if !slices.Contains(props, f) {
			continue
		}
		val, ok := fields[f]
		if !ok || !valueSerializable(val) {
			return nil, errors.ErrInvalidUpdate.WithDetail(f)
		}
		cleaned = append(cleaned, f)
	}
	return cleaned, nil
}

// BuildUpdateDocument 按更新策略构建更新文档
// full 策略忽略 updateFields 始终返回完整文档；
// partial 策略只返回清洗后的字段子集，清洗结果为空时返回空文档，
// 调用方必须把空文档当作无操作处理
func (b *DocumentBuilder) BuildUpdateDocument(obj any, index string, updateFields []string) (entity.SearchDocument, error) {
	if b.strategy == entity.UpdateStrategyFull {
		return b.BuildDocument(obj, index)
	}

	src, ok := obj.(entity.DocumentSource)
	if !ok {
		return nil, errors.ErrNotImplemented.WithDetail(fmt.Sprintf("%T", obj))
	}

	cleaned, err := b.CleanUpdateFields(src, index, updateFields)
	if err != nil {
		return nil, err
	}

	fields := src.SearchFields(index)
	doc := entity.SearchDocument{}
	for _, f := range cleaned {
		doc[f] = fields[f]
	}
	return doc, nil
}
