package graph

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/c360studio/bimgraph/storage"
)

// DefaultGraphStoreURL is the GraphDB default-graph endpoint of the
// BIM2Graph repository.
const DefaultGraphStoreURL = "http://localhost:7200/repositories/BIM2Graph/rdf-graphs/service?default"

// maxErrorBody bounds how much of a failed response is kept.
const maxErrorBody = 512

// StatusError is returned when the graph store rejects a document.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("graph store returned %d: %s", e.StatusCode, e.Body)
}

// GraphStore posts documents to an RDF graph store endpoint, adding them to
// the target graph.
type GraphStore struct {
	url    string
	client *http.Client
}

var _ storage.Sink = (*GraphStore)(nil)

// NewGraphStore creates a graph store client.
func NewGraphStore(url string, timeout time.Duration) *GraphStore {
	if url == "" {
		url = DefaultGraphStoreURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GraphStore{url: url, client: &http.Client{Timeout: timeout}}
}

// Name identifies the sink in logs and metrics.
func (s *GraphStore) Name() string { return "graph_store" }

// URL returns the endpoint documents are posted to.
func (s *GraphStore) URL() string { return s.url }

// Store posts doc.
func (s *GraphStore) Store(ctx context.Context, doc *storage.Document) error {
	_, err := s.Post(ctx, doc)
	return err
}

// Post sends doc and returns the response body.
func (s *GraphStore) Post(ctx context.Context, doc *storage.Document) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(doc.Content))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", doc.ContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("post document: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return "", &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}
	return string(body), nil
}
