package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/bimgraph/export"
)

const turtle = "@prefix inst: <https://example.com/inst#> .\n\ninst:Building_b1\n    a bot:Building .\n"

func TestFileSinkPath(t *testing.T) {
	tests := []struct {
		name string
		sink FileSink
		doc  Document
		want string
	}{
		{"beside model", FileSink{}, Document{ModelPath: "/models/office.rvt"}, "/models/office.ttl"},
		{"snapshot", FileSink{}, Document{ModelPath: "models/office.yaml"}, "models/office.ttl"},
		{"ntriples", FileSink{}, Document{ModelPath: "office.json", Format: export.FormatNTriples}, "office.nt"},
		{"output dir", FileSink{Dir: "/out"}, Document{ModelPath: "/models/office.rvt"}, "/out/office.ttl"},
		{"no model path", FileSink{Dir: "/out"}, Document{ProjectID: "b7c1 0001"}, "/out/b7c1-0001.ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), tt.sink.Path(&tt.doc))
		})
	}
}

func TestFileSinkStore(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "office.yaml")
	sink := FileSink{}

	doc := &Document{ModelPath: modelPath, Content: turtle}
	require.NoError(t, sink.Store(context.Background(), doc))

	data, err := os.ReadFile(filepath.Join(dir, "office.ttl"))
	require.NoError(t, err)
	assert.Equal(t, turtle, string(data))

	doc.Content = "# replaced\n"
	require.NoError(t, sink.Store(context.Background(), doc))
	data, err = os.ReadFile(filepath.Join(dir, "office.ttl"))
	require.NoError(t, err)
	assert.Equal(t, "# replaced\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestFileSinkCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	sink := FileSink{Dir: dir}
	require.NoError(t, sink.Store(context.Background(), &Document{ProjectID: "p1", Content: turtle}))
	_, err := os.Stat(filepath.Join(dir, "p1.ttl"))
	assert.NoError(t, err)
}

func TestFileSinkRejectsEmpty(t *testing.T) {
	err := FileSink{Dir: t.TempDir()}.Store(context.Background(), &Document{ProjectID: "p1"})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

// fakeObjects is an in-memory stand-in for a JetStream object store.
type fakeObjects struct {
	mu      sync.Mutex
	objects map[string]string
	infos   map[string]*jetstream.ObjectInfo
	putErr  error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string]string), infos: make(map[string]*jetstream.ObjectInfo)}
}

func (f *fakeObjects) Put(_ context.Context, meta jetstream.ObjectMeta, r io.Reader) (*jetstream.ObjectInfo, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[meta.Name] = string(data)
	info := &jetstream.ObjectInfo{ObjectMeta: meta, Size: uint64(len(data)), ModTime: time.Now()}
	f.infos[meta.Name] = info
	return info, nil
}

func (f *fakeObjects) GetString(_ context.Context, name string, _ ...jetstream.GetObjectOpt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.objects[name]
	if !ok {
		return "", jetstream.ErrObjectNotFound
	}
	return s, nil
}

func (f *fakeObjects) List(context.Context, ...jetstream.ListObjectsOpt) ([]*jetstream.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.infos) == 0 {
		return nil, jetstream.ErrNoObjectsFound
	}
	out := make([]*jetstream.ObjectInfo, 0, len(f.infos))
	for _, info := range f.infos {
		out = append(out, info)
	}
	return out, nil
}

func TestObjectStore(t *testing.T) {
	ctx := context.Background()
	fake := newFakeObjects()
	store := &ObjectStore{store: fake}

	projects, err := store.Projects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)

	_, err = store.Latest(ctx, "b7c1-0001")
	assert.ErrorIs(t, err, ErrNotFound)

	exportedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Store(ctx, &Document{ProjectID: "b7c1-0001", Content: turtle, Statements: 1, ExportedAt: exportedAt}))
	require.NoError(t, store.Store(ctx, &Document{ProjectID: "a000-0002", Content: turtle}))
	require.NoError(t, store.Store(ctx, &Document{ProjectID: "b7c1-0001", Content: turtle + "# v2\n"}))

	got, err := store.Latest(ctx, "b7c1-0001")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, "# v2\n"), "latest write wins")

	info := fake.infos["b7c1-0001.ttl"]
	require.NotNil(t, info)
	assert.Equal(t, "b7c1-0001", info.Metadata[MetaProject])
	assert.Equal(t, "0", info.Metadata[MetaStatements])

	projects, err = store.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a000-0002", "b7c1-0001"}, projects)
}

func TestObjectStoreError(t *testing.T) {
	fake := newFakeObjects()
	fake.putErr = errors.New("nats: timeout")
	store := &ObjectStore{store: fake}

	err := store.Store(context.Background(), &Document{ProjectID: "p1", Content: turtle})
	assert.ErrorIs(t, err, fake.putErr)
	assert.ErrorIs(t, store.Store(context.Background(), &Document{ProjectID: "p1"}), ErrEmptyDocument)
}

type stubSink struct {
	name   string
	err    error
	stored []*Document
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Store(_ context.Context, doc *Document) error {
	s.stored = append(s.stored, doc)
	return s.err
}

type publishRecorder struct {
	calls map[string]error
}

func (r *publishRecorder) ObservePublish(sink string, err error) {
	r.calls[sink] = err
}

func TestFanout(t *testing.T) {
	failure := errors.New("connection refused")
	ok := &stubSink{name: "file"}
	bad := &stubSink{name: "graph_store", err: failure}
	last := &stubSink{name: "object_store"}
	rec := &publishRecorder{calls: make(map[string]error)}

	f := &Fanout{Sinks: []Sink{ok, bad, last}, Observer: rec}
	err := f.Store(context.Background(), &Document{ProjectID: "p1", Content: turtle})

	require.Error(t, err)
	assert.ErrorIs(t, err, failure)
	assert.Contains(t, err.Error(), "graph_store")
	assert.Len(t, ok.stored, 1)
	assert.Len(t, last.stored, 1, "a failing sink does not stop delivery")
	assert.Equal(t, map[string]error{"file": nil, "graph_store": failure, "object_store": nil}, rec.calls)

	assert.ErrorIs(t, f.Store(context.Background(), &Document{}), ErrEmptyDocument)
}

func TestDocumentFormat(t *testing.T) {
	assert.Equal(t, "text/turtle", (&Document{}).ContentType())
	assert.Equal(t, ".nt", (&Document{Format: export.FormatNTriples}).Extension())
	assert.Equal(t, "application/n-triples", (&Document{Format: export.FormatNTriples}).ContentType())
}
