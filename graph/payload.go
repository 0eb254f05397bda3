package graph

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/c360studio/bimgraph/storage"
)

// Notification announces that a new graph document is available.
type Notification struct {
	ProjectID  string    `json:"project_id"`
	ModelPath  string    `json:"model_path,omitempty"`
	Format     string    `json:"format"`
	Object     string    `json:"object"`
	Statements int       `json:"statements"`
	ExportedAt time.Time `json:"exported_at"`
	// Document carries the rendered graph when inline delivery is enabled.
	Document string `json:"document,omitempty"`
}

// NewNotification describes doc. The document body is included only when
// inline is set.
func NewNotification(doc *storage.Document, inline bool) *Notification {
	n := &Notification{
		ProjectID:  doc.ProjectID,
		ModelPath:  doc.ModelPath,
		Format:     string(doc.Format),
		Object:     storage.ObjectName(doc.ProjectID, doc.Extension()),
		Statements: doc.Statements,
		ExportedAt: doc.ExportedAt,
	}
	if n.Format == "" {
		n.Format = "turtle"
	}
	if inline {
		n.Document = doc.Content
	}
	return n
}

// Validate checks the notification can be routed.
func (n *Notification) Validate() error {
	if n.ProjectID == "" {
		return errors.New("project ID is required")
	}
	return nil
}

// Marshal validates and encodes the notification.
func (n *Notification) Marshal() ([]byte, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(n)
}
