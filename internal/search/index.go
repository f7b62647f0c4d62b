// internal/search/index.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// PartnerIndex keeps the full-text partner index in Elasticsearch.
type PartnerIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewPartnerIndex(client *elasticsearch.Client, index string, log logger.Logger) *PartnerIndex {
	return &PartnerIndex{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "search", "index": index}),
	}
}

type partnerDocument struct {
	PartnerID         string   `json:"partner_id"`
	CompanyName       string   `json:"company_name"`
	Specializations   []string `json:"specializations"`
	Services          []string `json:"services"`
	Regions           []string `json:"regions"`
	UrgencyLevel      int      `json:"urgency_level"`
	AvailableCapacity int      `json:"available_capacity"`
	IsActive          bool     `json:"is_active"`
}

// IndexPartner creates or replaces the partner document.
func (x *PartnerIndex) IndexPartner(ctx context.Context, p *models.Partner) error {
	body, err := json.Marshal(partnerDocument{
		PartnerID:         p.ID,
		CompanyName:       p.CompanyName,
		Specializations:   p.Specializations,
		Services:          p.Services,
		Regions:           p.Regions,
		UrgencyLevel:      p.UrgencyLevel,
		AvailableCapacity: p.AvailableCapacity,
		IsActive:          p.IsActive,
	})
	if err != nil {
		return errors.NewInternalError(err)
	}

	req := esapi.IndexRequest{
		Index:      x.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewSearchQueryFailedError("index_partner", responseError(res))
	}
	x.logger.Debug("partner indexed", map[string]interface{}{"partnerId": p.ID})
	return nil
}

// DeletePartner removes the partner document. A missing document is not an error.
func (x *PartnerIndex) DeletePartner(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: x.index, DocumentID: id}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return errors.NewSearchQueryFailedError("delete_partner", responseError(res))
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source struct {
				PartnerID string `json:"partner_id"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchIDs runs a multi_match over the partner text fields and returns
// partner IDs ordered by relevance.
func (x *PartnerIndex) SearchIDs(ctx context.Context, text string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":  text,
							"fields": []string{"company_name^3", "specializations^2", "services", "regions"},
							"type":   "best_fields",
						},
					},
				},
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"is_active": true}},
				},
			},
		},
		"_source": []string{"partner_id"},
	}
	body, _ := json.Marshal(query)

	req := esapi.SearchRequest{
		Index: []string{x.index},
		Body:  strings.NewReader(string(body)),
		Size:  &limit,
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError("search_partners", responseError(res))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError("search_partners", err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		id := h.Source.PartnerID
		if id == "" {
			id = h.ID
		}
		ids = append(ids, id)
	}
	x.logger.Debug("partner search", map[string]interface{}{
		"query": text,
		"hits":  len(ids),
	})
	return ids, nil
}

func responseError(res *esapi.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("%s: %s", res.Status(), strings.TrimSpace(string(raw)))
}
