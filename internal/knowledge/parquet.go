package knowledge

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

type parquetContextItem struct {
	ID        string    `parquet:"id"`
	Kind      string    `parquet:"kind"`
	Text      string    `parquet:"text"`
	Embedding []float32 `parquet:"embedding,list"`
}

// EncodeItemsToParquet serializes the knowledge base into the artifact format
// consumed by the API server at startup.
func EncodeItemsToParquet(items []ContextItem) ([]byte, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("items are required")
	}

	rows := make([]parquetContextItem, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("context item with empty id")
		}
		if !IsValidKind(item.Kind) {
			return nil, fmt.Errorf("context item %q has invalid kind %q", item.ID, item.Kind)
		}
		if len(item.Embedding) == 0 {
			return nil, fmt.Errorf("context item %q has an empty embedding", item.ID)
		}
		rows = append(rows, parquetContextItem{
			ID:        item.ID,
			Kind:      string(item.Kind),
			Text:      item.Text,
			Embedding: item.Embedding,
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetContextItem](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeItemsFromParquet reads a knowledge-base artifact back into context
// items, preserving row order.
func DecodeItemsFromParquet(data []byte) ([]ContextItem, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("artifact is empty")
	}

	rows, err := parquet.Read[parquetContextItem](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}

	items := make([]ContextItem, 0, len(rows))
	for _, row := range rows {
		kind := Kind(row.Kind)
		if !IsValidKind(kind) {
			return nil, fmt.Errorf("artifact row %q has invalid kind %q", row.ID, row.Kind)
		}
		items = append(items, ContextItem{
			ID:        row.ID,
			Kind:      kind,
			Text:      row.Text,
			Embedding: row.Embedding,
		})
	}
	return items, nil
}
