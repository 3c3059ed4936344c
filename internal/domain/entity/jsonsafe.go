// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// JSONSafe 递归地将任意值转换为可 JSON 序列化的形式
// 时间转为 RFC 3339 字符串，其余无法编码的值回退为通用字符串表示
// 该转换永不失败
func JSONSafe(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t.Format(time.RFC3339)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.Format(time.RFC3339)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = JSONSafe(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = JSONSafe(val)
		}
		return out
	default:
		if _, err := json.Marshal(v); err != nil {
			return fmt.Sprint(v)
		}
		return v
	}
}

// SafeHits 返回经过 JSONSafe 转换的命中列表副本，原列表不变
func SafeHits(hits []Hit) []Hit {
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = h
		if h.Extra != nil {
			safe, _ := JSONSafe(h.Extra).(map[string]any)
			out[i].Extra = safe
		}
	}
	return out
}

// SafeQuery 返回经过 JSONSafe 转换的查询体副本，原查询体不变
func SafeQuery(query map[string]any) map[string]any {
	if query == nil {
		return nil
	}
	safe, _ := JSONSafe(query).(map[string]any)
	return safe
}
