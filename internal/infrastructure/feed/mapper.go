package feed

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/watchlens/backend/internal/domain"
)

// envelopeKeys are the object keys scrapers wrap their listing arrays in
var envelopeKeys = []string{"watches", "records", "products", "data"}

// DecodeRecords decodes an export body into raw records.
// The body is either a JSON array of objects or an object wrapping such an
// array under one of envelopeKeys. Numbers are kept as json.Number.
func DecodeRecords(body []byte) ([]domain.RawRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []domain.RawRecord{}, nil
	}

	switch trimmed[0] {
	case '[':
		return decodeArray(trimmed)
	case '{':
		var envelope map[string]json.RawMessage
		if err := newDecoder(trimmed).Decode(&envelope); err != nil {
			return nil, fmt.Errorf("%w: decoding export: %v", domain.ErrFeedFailure, err)
		}
		for _, key := range envelopeKeys {
			if raw, ok := envelope[key]; ok {
				return decodeArray(raw)
			}
		}
		return nil, fmt.Errorf("%w: export object has no listing array", domain.ErrFeedFailure)
	default:
		return nil, fmt.Errorf("%w: export is not JSON", domain.ErrFeedFailure)
	}
}

func decodeArray(data []byte) ([]domain.RawRecord, error) {
	var items []map[string]any
	if err := newDecoder(data).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: decoding export: %v", domain.ErrFeedFailure, err)
	}

	records := make([]domain.RawRecord, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, domain.RawRecord(item))
	}
	return records, nil
}

func newDecoder(data []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec
}
