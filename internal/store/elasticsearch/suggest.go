package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mouadelabbassi/dashboard/internal/domain"
	"github.com/mouadelabbassi/dashboard/pkg/database"
)

type esSuggestResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				Name string `json:"product_name"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func buildSuggestQuery(prefix string, limit int) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{"match": map[string]interface{}{"product_name.autocomplete": prefix}},
				},
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"approval_status": domain.ApprovalApproved}},
				},
			},
		},
		// Over-fetch so duplicates can be dropped.
		"size":    limit * 2,
		"_source": []string{"product_name"},
		"sort": []interface{}{
			map[string]interface{}{"sales_count": "desc"},
			map[string]interface{}{"_score": "desc"},
		},
	}
}

// SuggestNames returns distinct product names matching prefix on the
// autocomplete subfield.
func (s *Store) SuggestNames(ctx context.Context, prefix string, limit int) (_ []string, err error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || limit < 1 {
		return []string{}, nil
	}

	data, err := json.Marshal(buildSuggestQuery(prefix, limit))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: marshal query: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, database.SystemElasticsearch, "SuggestProductNames", string(data))
	defer func() { end(err) }()

	res, err := s.client.Search(
		s.client.Search.WithIndex(s.indexName),
		s.client.Search.WithBody(bytes.NewReader(data)),
		s.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if err := responseError("elasticsearch suggest", res); err != nil {
		return nil, err
	}

	var esResp esSuggestResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: decode response: %w", err)
	}

	seen := make(map[string]struct{})
	names := make([]string, 0, limit)
	for _, hit := range esResp.Hits.Hits {
		name := hit.Source.Name
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
		if len(names) == limit {
			break
		}
	}
	return names, nil
}
