package elastic

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, handler http.HandlerFunc) *AssignmentSearchRepo {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewAssignmentSearchRepository(client, AssignmentIndex)
}

func TestSearchFiltersBySubject(t *testing.T) {
	subject := uuid.New()
	assignment := uuid.New()
	var body map[string]any

	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/assignments/_search"), r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		_, _ = io.WriteString(w, `{"hits":{"hits":[{"_score":1.5,"_source":{"assignment_id":"`+
			assignment.String()+`","subject_id":"`+subject.String()+`","title":"Quiz","content":"algebra"}}]}}`)
	})

	hits, err := repo.Search(t.Context(), "algebra", []uuid.UUID{subject}, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, assignment, hits[0].AssignmentID)
	assert.Equal(t, "Quiz", hits[0].Title)
	assert.Equal(t, 1.5, hits[0].Score)

	filter := body["query"].(map[string]any)["bool"].(map[string]any)["filter"].(map[string]any)
	assert.Equal(t, []any{subject.String()}, filter["terms"].(map[string]any)["subject_id"])
	assert.Equal(t, float64(10), body["size"])
}

func TestSearchWithoutSubjectsSkipsCluster(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	hits, err := repo.Search(t.Context(), "algebra", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDeleteIgnoresMissingDocument(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"result":"not_found"}`)
	})
	assert.NoError(t, repo.Delete(t.Context(), uuid.New()))
}
