package graph

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/bimgraph/export"
	"github.com/c360studio/bimgraph/storage"
)

const turtle = "inst:Building_b1\n    a bot:Building .\n"

type published struct {
	subject string
	data    []byte
}

type fakeStream struct {
	msgs []published
	err  error
}

func (f *fakeStream) Publish(_ context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.msgs = append(f.msgs, published{subject: subject, data: data})
	return &jetstream.PubAck{Stream: DefaultStream, Sequence: uint64(len(f.msgs))}, nil
}

func TestPublisherStore(t *testing.T) {
	stream := &fakeStream{}
	p := withDefaults(&Publisher{js: stream})

	exportedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := &storage.Document{ProjectID: "b7c1 0001", ModelPath: "office.yaml", Content: turtle, Statements: 1, ExportedAt: exportedAt}
	require.NoError(t, p.Store(context.Background(), doc))
	require.Len(t, stream.msgs, 1)
	assert.Equal(t, "bimgraph.export.b7c1-0001", stream.msgs[0].subject)

	var n Notification
	require.NoError(t, json.Unmarshal(stream.msgs[0].data, &n))
	assert.Equal(t, "b7c1 0001", n.ProjectID)
	assert.Equal(t, "turtle", n.Format)
	assert.Equal(t, "b7c1-0001.ttl", n.Object)
	assert.Equal(t, 1, n.Statements)
	assert.True(t, exportedAt.Equal(n.ExportedAt))
	assert.Empty(t, n.Document, "document is not inlined by default")
}

func TestPublisherInline(t *testing.T) {
	stream := &fakeStream{}
	p := withDefaults(&Publisher{js: stream, inline: true})
	require.NoError(t, p.Store(context.Background(), &storage.Document{ProjectID: "p1", Content: turtle, Format: export.FormatNTriples}))

	var n Notification
	require.NoError(t, json.Unmarshal(stream.msgs[0].data, &n))
	assert.Equal(t, turtle, n.Document)
	assert.Equal(t, "ntriples", n.Format)
	assert.Equal(t, "p1.nt", n.Object)
}

func TestPublisherErrors(t *testing.T) {
	stream := &fakeStream{err: errors.New("nats: no responders available for request")}
	p := withDefaults(&Publisher{js: stream})
	err := p.Store(context.Background(), &storage.Document{ProjectID: "p1", Content: turtle})
	assert.ErrorIs(t, err, stream.err)

	err = withDefaults(&Publisher{js: &fakeStream{}}).Store(context.Background(), &storage.Document{Content: turtle})
	assert.ErrorContains(t, err, "project ID is required")
}

func TestPublisherWithoutBroker(t *testing.T) {
	p := NewPublisher(nil, "", false, nil)
	assert.NoError(t, p.Store(context.Background(), &storage.Document{ProjectID: "p1", Content: turtle}))
	assert.Equal(t, "bimgraph.export.p1", p.Subject("p1"))
}

// withDefaults builds a publisher through NewPublisher around a fake stream.
func withDefaults(p *Publisher) *Publisher {
	q := NewPublisher(nil, p.subjectPrefix, p.inline, p.logger)
	q.js = p.js
	return q
}

func TestGraphStorePost(t *testing.T) {
	var (
		gotBody        string
		gotContentType string
		gotQuery       string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotContentType = r.Header.Get("Content-Type")
		gotQuery = r.URL.RawQuery
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := NewGraphStore(srv.URL+"/repositories/BIM2Graph/rdf-graphs/service?default", time.Second)
	require.NoError(t, store.Store(context.Background(), &storage.Document{ProjectID: "p1", Content: turtle}))

	assert.Equal(t, "text/turtle", gotContentType)
	assert.Equal(t, "default", gotQuery)
	assert.Equal(t, turtle, gotBody)
}

func TestGraphStoreRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "MALFORMED DATA: "+strings.Repeat("x", 1000), http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewGraphStore(srv.URL, time.Second).Store(context.Background(), &storage.Document{ProjectID: "p1", Content: turtle})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.True(t, strings.HasPrefix(statusErr.Body, "MALFORMED DATA"))
	assert.Len(t, statusErr.Body, maxErrorBody)
}

func TestGraphStoreDefaults(t *testing.T) {
	store := NewGraphStore("", 0)
	assert.Equal(t, DefaultGraphStoreURL, store.URL())
	assert.Equal(t, "graph_store", store.Name())
}
