package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/bimgraph/ident"
)

// DefaultBucket is the object store bucket documents are kept in.
const DefaultBucket = "BIMGRAPH_DOCUMENTS"

// Metadata keys stored with each document object.
const (
	MetaProject    = "project"
	MetaFormat     = "format"
	MetaStatements = "statements"
	MetaExportedAt = "exported_at"
	MetaModelPath  = "model_path"
)

// objects is the part of jetstream.ObjectStore the sink uses.
type objects interface {
	Put(ctx context.Context, meta jetstream.ObjectMeta, reader io.Reader) (*jetstream.ObjectInfo, error)
	GetString(ctx context.Context, name string, opts ...jetstream.GetObjectOpt) (string, error)
	List(ctx context.Context, opts ...jetstream.ListObjectsOpt) ([]*jetstream.ObjectInfo, error)
}

// ObjectStore keeps the latest document of every project in a JetStream
// object store bucket.
type ObjectStore struct {
	store objects
}

var _ Sink = (*ObjectStore)(nil)

// NewObjectStore opens bucket, creating it if it does not exist.
func NewObjectStore(ctx context.Context, js jetstream.JetStream, bucket string) (*ObjectStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	store, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("create %s bucket: %w", bucket, err)
	}
	return &ObjectStore{store: store}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.ObjectStore, error) {
	store, err := js.ObjectStore(ctx, name)
	if err == nil {
		return store, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, err
	}
	return js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      name,
		Description: "Building graph documents, latest per project",
	})
}

// ObjectName returns the object a project's document is stored under.
func ObjectName(projectID, ext string) string {
	return ident.Sanitize(projectID) + ext
}

// Name identifies the sink in logs and metrics.
func (s *ObjectStore) Name() string { return "object_store" }

// Store replaces the stored document of doc's project.
func (s *ObjectStore) Store(ctx context.Context, doc *Document) error {
	if doc.Content == "" {
		return ErrEmptyDocument
	}
	exportedAt := doc.ExportedAt
	if exportedAt.IsZero() {
		exportedAt = time.Now()
	}
	meta := jetstream.ObjectMeta{
		Name:        ObjectName(doc.ProjectID, doc.Extension()),
		Description: fmt.Sprintf("%s graph of %s", doc.Format, doc.ProjectID),
		Metadata: map[string]string{
			MetaProject:    doc.ProjectID,
			MetaFormat:     string(doc.Format),
			MetaStatements: strconv.Itoa(doc.Statements),
			MetaExportedAt: exportedAt.UTC().Format(time.RFC3339),
			MetaModelPath:  doc.ModelPath,
		},
	}
	if _, err := s.store.Put(ctx, meta, strings.NewReader(doc.Content)); err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

// Latest returns the stored Turtle document of a project.
func (s *ObjectStore) Latest(ctx context.Context, projectID string) (string, error) {
	content, err := s.store.GetString(ctx, ObjectName(projectID, ".ttl"))
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get document: %w", err)
	}
	return content, nil
}

// Projects lists the projects with a stored document.
func (s *ObjectStore) Projects(ctx context.Context) ([]string, error) {
	infos, err := s.store.List(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoObjectsFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list documents: %w", err)
	}

	seen := make(map[string]bool, len(infos))
	projects := make([]string, 0, len(infos))
	for _, info := range infos {
		id := info.Metadata[MetaProject]
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		projects = append(projects, id)
	}
	sort.Strings(projects)
	return projects, nil
}
