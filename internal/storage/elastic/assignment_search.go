package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
)

// AssignmentDoc is the searchable projection of an assignment: its title
// plus the extracted text of every block.
type AssignmentDoc struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	SubjectID    uuid.UUID `json:"subject_id"`
	ParagraphID  uuid.UUID `json:"paragraph_id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
}

type Hit struct {
	AssignmentDoc
	Score float64 `json:"score"`
}

type AssignmentSearchRepo struct {
	client *elasticsearch.Client
	index  string
}

func NewAssignmentSearchRepository(client *elasticsearch.Client, index string) *AssignmentSearchRepo {
	return &AssignmentSearchRepo{client: client, index: index}
}

func (r *AssignmentSearchRepo) CreateIndexIfNotExist(ctx context.Context) error {
	existsReq := esapi.IndicesExistsRequest{Index: []string{r.index}}
	existsRes, err := existsReq.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("error checking index existence: %w", err)
	}
	defer existsRes.Body.Close()

	if existsRes.StatusCode == 404 {
		textField := map[string]any{
			"type":            "text",
			"analyzer":        "edge_ngram_analyzer",
			"search_analyzer": "standard",
		}
		mapping := map[string]any{
			"settings": map[string]any{
				"analysis": map[string]any{
					"analyzer": map[string]any{
						"edge_ngram_analyzer": map[string]any{
							"tokenizer": "edge_ngram_tokenizer",
							"filter":    []string{"lowercase"},
						},
					},
					"tokenizer": map[string]any{
						"edge_ngram_tokenizer": map[string]any{
							"type":        "edge_ngram",
							"min_gram":    2,
							"max_gram":    20,
							"token_chars": []string{"letter", "digit"},
						},
					},
				},
			},
			"mappings": map[string]any{
				"properties": map[string]any{
					"assignment_id": map[string]any{"type": "keyword"},
					"subject_id":    map[string]any{"type": "keyword"},
					"paragraph_id":  map[string]any{"type": "keyword"},
					"title":         textField,
					"content":       textField,
				},
			},
		}

		body, err := json.Marshal(mapping)
		if err != nil {
			return fmt.Errorf("marshal mapping: %w", err)
		}
		req := esapi.IndicesCreateRequest{Index: r.index, Body: bytes.NewReader(body)}
		res, err := req.Do(ctx, r.client)
		if err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("mapping creation failed: %s", res.String())
		}
		return nil
	}

	if existsRes.StatusCode >= 300 {
		return fmt.Errorf("index existence check failed with status code %d", existsRes.StatusCode)
	}
	return nil
}

// Index creates or replaces the document of one assignment.
func (r *AssignmentSearchRepo) Index(ctx context.Context, doc AssignmentDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal doc: %w", err)
	}
	req := esapi.IndexRequest{
		Index:      r.index,
		DocumentID: doc.AssignmentID.String(),
		Refresh:    "true",
		Body:       bytes.NewReader(data),
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("index request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index error: %s", res.String())
	}
	return nil
}

func (r *AssignmentSearchRepo) Delete(ctx context.Context, id uuid.UUID) error {
	req := esapi.DeleteRequest{
		Index:      r.index,
		DocumentID: id.String(),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete error: %s", res.String())
	}
	return nil
}

// Search matches title and content, restricted to the given subjects. An
// empty subject list matches nothing.
func (r *AssignmentSearchRepo) Search(ctx context.Context, query string, subjectIDs []uuid.UUID, size int) ([]Hit, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	if size <= 0 {
		size = 10
	}
	subjects := make([]string, len(subjectIDs))
	for i, id := range subjectIDs {
		subjects[i] = id.String()
	}
	q := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":                query,
						"fields":               []string{"title^3", "content"},
						"type":                 "best_fields",
						"fuzziness":            "AUTO",
						"operator":             "or",
						"minimum_should_match": "2<75%",
					},
				},
				"filter": map[string]any{
					"terms": map[string]any{"subject_id": subjects},
				},
			},
		},
		"size": size,
	}
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(q); err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}
	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search error: %s", string(bodyBytes))
	}
	var esRes struct {
		Hits struct {
			Hits []struct {
				Score  float64       `json:"_score"`
				Source AssignmentDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esRes); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	hits := make([]Hit, 0, len(esRes.Hits.Hits))
	for _, h := range esRes.Hits.Hits {
		hits = append(hits, Hit{AssignmentDoc: h.Source, Score: h.Score})
	}
	return hits, nil
}
