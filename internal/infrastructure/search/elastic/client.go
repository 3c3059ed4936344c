// Package elastic 提供 Elasticsearch 传输客户端
// 只负责网络调用与错误归类，不做重试，重试策略归上层编排
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"search-sync-svc/internal/config"
	"search-sync-svc/internal/domain/entity"
	"search-sync-svc/internal/domain/repository"
	apperrors "search-sync-svc/pkg/errors"
)

var tracer = otel.Tracer("elastic")

// Client Elasticsearch 客户端
type Client struct {
	es *elasticsearch.Client
}

// NewClient 创建 Elasticsearch 客户端
func NewClient(cfg *config.ElasticsearchConfig) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &Client{es: es}, nil
}

// HealthCheck 检查集群可达性
func (c *Client) HealthCheck(ctx context.Context) error {
	res, err := checkResponse(c.es.Ping(c.es.Ping.WithContext(ctx)))
	if err != nil {
		return fmt.Errorf("elasticsearch health check failed: %w", err)
	}
	res.Body.Close()
	return nil
}

// checkResponse 把引擎错误响应归类为传输层错误
func checkResponse(res *esapi.Response, err error) (*esapi.Response, error) {
	if err != nil {
		return nil, apperrors.NewTransportError(0, "request failed", err)
	}
	if res.IsError() {
		reason := res.Status()
		res.Body.Close()
		return nil, apperrors.NewTransportError(res.StatusCode, reason, nil)
	}
	return res, nil
}

// Index 写入完整文档
func (c *Client) Index(ctx context.Context, index, id string, doc entity.SearchDocument) error {
	ctx, span := tracer.Start(ctx, "elastic.Index",
		trace.WithAttributes(
			attribute.String("es.index", index),
			attribute.String("es.id", id),
		))
	defer span.End()

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	res, err := checkResponse(c.es.Index(index, bytes.NewReader(body),
		c.es.Index.WithDocumentID(id),
		c.es.Index.WithContext(ctx),
	))
	if err != nil {
		span.RecordError(err)
		return err
	}
	res.Body.Close()
	return nil
}

// Update 以 {"doc": ...} 包装局部文档提交
func (c *Client) Update(ctx context.Context, index, id string, doc entity.SearchDocument) error {
	ctx, span := tracer.Start(ctx, "elastic.Update",
		trace.WithAttributes(
			attribute.String("es.index", index),
			attribute.String("es.id", id),
		))
	defer span.End()

	body, err := json.Marshal(map[string]any{"doc": doc})
	if err != nil {
		return fmt.Errorf("failed to encode update document: %w", err)
	}

	res, err := checkResponse(c.es.Update(index, id, bytes.NewReader(body),
		c.es.Update.WithContext(ctx),
	))
	if err != nil {
		span.RecordError(err)
		return err
	}
	res.Body.Close()
	return nil
}

// Delete 删除文档
func (c *Client) Delete(ctx context.Context, index, id string) error {
	ctx, span := tracer.Start(ctx, "elastic.Delete",
		trace.WithAttributes(
			attribute.String("es.index", index),
			attribute.String("es.id", id),
		))
	defer span.End()

	res, err := checkResponse(c.es.Delete(index, id,
		c.es.Delete.WithContext(ctx),
	))
	if err != nil {
		span.RecordError(err)
		return err
	}
	res.Body.Close()
	return nil
}

// Get 取回当前文档的 _source
func (c *Client) Get(ctx context.Context, index, id string) (entity.SearchDocument, error) {
	ctx, span := tracer.Start(ctx, "elastic.Get",
		trace.WithAttributes(
			attribute.String("es.index", index),
			attribute.String("es.id", id),
		))
	defer span.End()

	res, err := checkResponse(c.es.Get(index, id,
		c.es.Get.WithContext(ctx),
	))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer res.Body.Close()

	var payload struct {
		Source entity.SearchDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode get response: %w", err)
	}
	return payload.Source, nil
}

// Bulk 批量提交操作记录
// 按 NDJSON 组装：每条操作一行元数据，index 跟 _source 行，update 跟 doc 行
func (c *Client) Bulk(ctx context.Context, actions []entity.SearchAction) error {
	ctx, span := tracer.Start(ctx, "elastic.Bulk",
		trace.WithAttributes(attribute.Int("es.action_count", len(actions))))
	defer span.End()

	var buf bytes.Buffer
	for _, a := range actions {
		meta := map[string]any{
			a.OpType: map[string]any{"_index": a.Index, "_id": a.ID},
		}
		metaLine, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("failed to encode bulk meta: %w", err)
		}
		buf.Write(metaLine)
		buf.WriteByte('\n')

		switch a.OpType {
		case entity.ActionIndex:
			line, err := json.Marshal(a.Source)
			if err != nil {
				return fmt.Errorf("failed to encode bulk source: %w", err)
			}
			buf.Write(line)
			buf.WriteByte('\n')
		case entity.ActionUpdate:
			line, err := json.Marshal(map[string]any{"doc": a.Doc})
			if err != nil {
				return fmt.Errorf("failed to encode bulk doc: %w", err)
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}
	}

	res, err := checkResponse(c.es.Bulk(bytes.NewReader(buf.Bytes()),
		c.es.Bulk.WithContext(ctx),
	))
	if err != nil {
		span.RecordError(err)
		return err
	}
	res.Body.Close()
	return nil
}

// Search 执行查询并抽取命中列表
func (c *Client) Search(ctx context.Context, index string, query map[string]any) (*repository.SearchResult, error) {
	ctx, span := tracer.Start(ctx, "elastic.Search",
		trace.WithAttributes(attribute.String("es.index", index)))
	defer span.End()

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := checkResponse(c.es.Search(
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithContext(ctx),
	))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer res.Body.Close()

	var payload struct {
		Took int64 `json:"took"`
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			MaxScore *float64 `json:"max_score"`
			Hits     []struct {
				ID    string   `json:"_id"`
				Score *float64 `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]entity.Hit, 0, len(payload.Hits.Hits))
	for _, h := range payload.Hits.Hits {
		hits = append(hits, entity.Hit{ID: h.ID, Score: h.Score})
	}

	result := &repository.SearchResult{
		Hits:      hits,
		TotalHits: payload.Hits.Total.Value,
		Took:      payload.Took,
	}
	if payload.Hits.MaxScore != nil {
		result.MaxScore = *payload.Hits.MaxScore
	}

	span.SetAttributes(attribute.Int64("es.total_hits", result.TotalHits))
	return result, nil
}
