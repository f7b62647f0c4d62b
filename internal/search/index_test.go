// internal/search/index_test.go
package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

func newFakeElasticsearch(t *testing.T, status int, response string) (*elasticsearch.Client, *[]recordedRequest) {
	t.Helper()
	var recorded []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		recorded = append(recorded, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client, &recorded
}

func TestIndexPartner(t *testing.T) {
	client, recorded := newFakeElasticsearch(t, http.StatusCreated, `{"result":"created"}`)
	idx := NewPartnerIndex(client, "partners", logger.NewTestLogger(t))

	p := models.NewPartner("p1", "СтройКом", "info@stroy.ru", "contractor")
	p.Specializations = []string{"каркасные дома"}
	require.NoError(t, idx.IndexPartner(context.Background(), p))

	require.Len(t, *recorded, 1)
	req := (*recorded)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/partners/_doc/p1", req.Path)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(req.Body), &doc))
	assert.Equal(t, "СтройКом", doc["company_name"])
	assert.Equal(t, true, doc["is_active"])
}

func TestIndexPartner_Error(t *testing.T) {
	client, _ := newFakeElasticsearch(t, http.StatusBadRequest, `{"error":"mapper_parsing_exception"}`)
	idx := NewPartnerIndex(client, "partners", logger.NewTestLogger(t))

	err := idx.IndexPartner(context.Background(), models.NewPartner("p1", "X", "x@x.ru", "producer"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSearchQueryFailed))
	assert.Contains(t, errors.AsStandardError(err).Details, "mapper_parsing_exception")
}

func TestDeletePartner_MissingIsNotAnError(t *testing.T) {
	client, recorded := newFakeElasticsearch(t, http.StatusNotFound, `{"result":"not_found"}`)
	idx := NewPartnerIndex(client, "partners", logger.NewTestLogger(t))

	require.NoError(t, idx.DeletePartner(context.Background(), "ghost"))
	assert.Equal(t, http.MethodDelete, (*recorded)[0].Method)
}

func TestSearchIDs(t *testing.T) {
	response := `{"hits":{"hits":[
		{"_id":"p2","_score":3.1,"_source":{"partner_id":"p2"}},
		{"_id":"p1","_score":1.4,"_source":{}}
	]}}`
	client, recorded := newFakeElasticsearch(t, http.StatusOK, response)
	idx := NewPartnerIndex(client, "partners", logger.NewTestLogger(t))

	ids, err := idx.SearchIDs(context.Background(), "кровля", 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, ids)

	req := (*recorded)[0]
	assert.Equal(t, "/partners/_search", req.Path)
	assert.True(t, strings.Contains(req.Body, `"multi_match"`))
	assert.True(t, strings.Contains(req.Body, `company_name^3`))
}

func TestSearchIDs_ServerError(t *testing.T) {
	client, _ := newFakeElasticsearch(t, http.StatusInternalServerError, `{"error":"shard failure"}`)
	idx := NewPartnerIndex(client, "partners", logger.NewTestLogger(t))

	_, err := idx.SearchIDs(context.Background(), "кровля", 0)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSearchQueryFailed))
}
