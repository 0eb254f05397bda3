package export

import (
	"fmt"
	"strings"

	"github.com/c360studio/bimgraph/vocabulary/bim"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatTurtle: {
		Name:        FormatTurtle,
		MIMEType:    "text/turtle",
		Extension:   ".ttl",
		Description: "Turtle - Terse RDF Triple Language",
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples - Line-based RDF format",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// TurtleWriter writes statements in Turtle format.
type TurtleWriter struct {
	sb strings.Builder
}

// NewTurtleWriter creates a new Turtle writer.
func NewTurtleWriter() *TurtleWriter {
	return &TurtleWriter{}
}

// WriteHeader writes the baseURI and imports comments followed by the
// prefix declarations, in the order given.
func (w *TurtleWriter) WriteHeader(baseURI string, imports []string, prefixes []bim.Prefix) {
	if baseURI != "" {
		fmt.Fprintf(&w.sb, "# baseURI: %s\n", baseURI)
	}
	for _, imp := range imports {
		fmt.Fprintf(&w.sb, "# imports: %s\n", imp)
	}
	if baseURI != "" || len(imports) > 0 {
		w.sb.WriteString("\n")
	}
	for _, p := range prefixes {
		fmt.Fprintf(&w.sb, "@prefix %s: <%s> .\n", p.Name, p.IRI)
	}
	w.sb.WriteString("\n")
}

// WriteSubject starts a new subject block.
func (w *TurtleWriter) WriteSubject(subject string) {
	w.sb.WriteString(turtleTerm(subject))
	w.sb.WriteString("\n")
}

// WritePredicate writes a predicate-object pair.
func (w *TurtleWriter) WritePredicate(predicate string, object Object, last bool) {
	terminator := " ;"
	if last {
		terminator = " ."
	}
	fmt.Fprintf(&w.sb, "    %s %s%s\n", turtleTerm(predicate), formatObject(object), terminator)
}

// WriteBlank writes a blank line for readability.
func (w *TurtleWriter) WriteBlank() {
	w.sb.WriteString("\n")
}

// String returns the accumulated Turtle output.
func (w *TurtleWriter) String() string {
	return w.sb.String()
}

// NTriplesWriter writes statements in N-Triples format. Every prefixed name
// is expanded against the writer's bindings.
type NTriplesWriter struct {
	prefixes []bim.Prefix
	sb       strings.Builder
}

// NewNTriplesWriter creates a new N-Triples writer.
func NewNTriplesWriter(prefixes []bim.Prefix) *NTriplesWriter {
	return &NTriplesWriter{prefixes: prefixes}
}

// WriteTriple writes a single statement.
func (w *NTriplesWriter) WriteTriple(st Statement) error {
	subject, err := w.iri(st.Subject)
	if err != nil {
		return err
	}
	predicate, err := w.iri(st.Predicate)
	if err != nil {
		return err
	}
	object, err := w.object(st.Object)
	if err != nil {
		return err
	}
	fmt.Fprintf(&w.sb, "<%s> <%s> %s .\n", subject, predicate, object)
	return nil
}

// String returns the accumulated N-Triples output.
func (w *NTriplesWriter) String() string {
	return w.sb.String()
}

func (w *NTriplesWriter) iri(name string) (string, error) {
	if name == bim.RDFType {
		return bim.RDFTypeIRI, nil
	}
	if isAbsoluteIRI(name) {
		return name, nil
	}
	iri, ok := bim.Expand(w.prefixes, name)
	if !ok {
		return "", fmt.Errorf("unbound prefix in %q", name)
	}
	return iri, nil
}

func (w *NTriplesWriter) object(o Object) (string, error) {
	if !o.IsLiteral() {
		iri, err := w.iri(o.Ref)
		if err != nil {
			return "", err
		}
		return "<" + iri + ">", nil
	}
	lit := "\"" + escapeString(o.Lexical) + "\""
	if o.Datatype == "" {
		return lit, nil
	}
	dt, err := w.iri(o.Datatype)
	if err != nil {
		return "", err
	}
	return lit + "^^<" + dt + ">", nil
}

// turtleTerm writes a node reference: absolute IRIs are bracketed, prefixed
// names are written as is.
func turtleTerm(name string) string {
	if isAbsoluteIRI(name) {
		return "<" + name + ">"
	}
	return name
}

// formatObject formats an object value for Turtle output.
func formatObject(o Object) string {
	if !o.IsLiteral() {
		return turtleTerm(o.Ref)
	}
	lit := "\"" + escapeString(o.Lexical) + "\""
	if o.Datatype == "" {
		return lit
	}
	return lit + "^^" + turtleTerm(o.Datatype)
}
