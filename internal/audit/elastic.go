package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"assignment-notifier/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticMirror indexes audit records by reference id.
type ElasticMirror struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticMirror(client *elasticsearch.Client, index string) *ElasticMirror {
	return &ElasticMirror{client: client, index: index}
}

func (m *ElasticMirror) Index(ctx context.Context, record *models.AuditRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	res, err := m.client.Index(
		m.index,
		bytes.NewReader(body),
		m.client.Index.WithContext(ctx),
		m.client.Index.WithDocumentID(record.ReferenceID),
	)
	if err != nil {
		return fmt.Errorf("index audit record: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index audit record: %s: %s", res.Status(), bytes.TrimSpace(msg))
	}
	return nil
}

// Lookup fetches a mirrored record by reference id.
func (m *ElasticMirror) Lookup(ctx context.Context, referenceID string) (*models.AuditRecord, error) {
	res, err := m.client.Get(m.index, referenceID, m.client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get audit record: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("get audit record: %s", res.Status())
	}

	var doc struct {
		Source models.AuditRecord `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode audit record: %w", err)
	}
	return &doc.Source, nil
}
