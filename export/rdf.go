// Package export accumulates the statements of one export pass and
// serializes them as Turtle or N-Triples.
package export

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/c360studio/bimgraph/units"
	"github.com/c360studio/bimgraph/vocabulary/bim"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"
)

// ParseFormat parses a format name. Empty selects Turtle.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "turtle", "ttl":
		return FormatTurtle, nil
	case "ntriples", "n-triples", "nt":
		return FormatNTriples, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Errors returned when a property would break the unit invariant.
var (
	ErrMissingUnit    = errors.New("physical property has no unit")
	ErrUnexpectedUnit = errors.New("dimensionless property has a unit")
	ErrUntyped        = errors.New("entity has no ontology type")
)

// Object is the object position of a statement: either a reference to a
// node (a prefixed name or absolute IRI) or a literal.
type Object struct {
	// Ref is set for node references and empty for literals.
	Ref string
	// Lexical is the literal's lexical form.
	Lexical string
	// Datatype is the prefixed datatype name; empty for plain literals.
	Datatype string
}

// IsLiteral reports whether the object is a literal.
func (o Object) IsLiteral() bool {
	return o.Ref == ""
}

func (o Object) String() string {
	if !o.IsLiteral() {
		return o.Ref
	}
	if o.Datatype == "" {
		return strconv.Quote(o.Lexical)
	}
	return strconv.Quote(o.Lexical) + "^^" + o.Datatype
}

// Ref returns a node reference object.
func Ref(id string) Object {
	return Object{Ref: id}
}

// String returns an xsd:string literal.
func String(s string) Object {
	return Object{Lexical: s, Datatype: bim.XSDString}
}

// Double returns an xsd:double literal.
func Double(v float64) Object {
	return Object{Lexical: FormatDouble(v), Datatype: bim.XSDDouble}
}

// FormatDouble returns the canonical lexical form used for numeric values.
func FormatDouble(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "INF"
	case math.IsInf(v, -1):
		return "-INF"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Statement is one subject, predicate, object triple. Subject and predicate
// are prefixed names; "a" stands for rdf:type.
type Statement struct {
	Subject   string
	Predicate string
	Object    Object
}

func (s Statement) String() string {
	return s.Subject + " " + s.Predicate + " " + s.Object.String()
}

// Entity is a typed graph node.
type Entity struct {
	ID    string
	Type  string
	Label string
}

// Property is a measurement or classifier node owned by one entity.
type Property struct {
	ID    string
	Kind  bim.PropertyKind
	Value Object
	Unit  units.Ontology
}

// Validate checks the unit invariant: physical kinds carry a unit, all
// other kinds never do.
func (p Property) Validate() error {
	if p.Kind.Physical() && p.Unit == units.None {
		return fmt.Errorf("%s %s: %w", p.Kind, p.ID, ErrMissingUnit)
	}
	if !p.Kind.Physical() && p.Unit != units.None {
		return fmt.Errorf("%s %s: %w", p.Kind, p.ID, ErrUnexpectedUnit)
	}
	return nil
}

// Document is the append-only statement buffer of one export pass. It is
// not safe for concurrent use.
type Document struct {
	prefixes   []bim.Prefix
	baseURI    string
	statements []Statement
	typed      map[string]string
	suppressed map[string]bool
}

// NewDocument creates an empty document whose inst prefix is bound to
// instanceNS (the default namespace when empty).
func NewDocument(instanceNS string) *Document {
	return &Document{
		prefixes:   bim.Prefixes(instanceNS),
		typed:      make(map[string]string),
		suppressed: make(map[string]bool),
	}
}

// SetBaseURI sets the location written in the "# baseURI:" header line.
func (d *Document) SetBaseURI(uri string) {
	d.baseURI = uri
}

// Prefixes returns the namespace bindings of the document.
func (d *Document) Prefixes() []bim.Prefix {
	return d.prefixes
}

// Emit appends one statement.
func (d *Document) Emit(st Statement) {
	if st.Predicate == bim.RDFType && !st.Object.IsLiteral() {
		if _, ok := d.typed[st.Subject]; !ok {
			d.typed[st.Subject] = st.Object.Ref
		}
	}
	d.statements = append(d.statements, st)
}

// AddEntity emits the type and, when present, the label of e.
func (d *Document) AddEntity(e Entity) error {
	if e.Type == "" {
		return fmt.Errorf("%s: %w", e.ID, ErrUntyped)
	}
	d.Emit(Statement{Subject: e.ID, Predicate: bim.RDFType, Object: Ref(e.Type)})
	if e.Label != "" {
		d.Emit(Statement{Subject: e.ID, Predicate: bim.RDFSLabel, Object: String(e.Label)})
	}
	return nil
}

// Ensure declares id with the given class unless it already has a type.
// It reports whether a declaration was emitted.
func (d *Document) Ensure(id, class string) bool {
	if _, ok := d.typed[id]; ok {
		return false
	}
	d.Emit(Statement{Subject: id, Predicate: bim.RDFType, Object: Ref(class)})
	return true
}

// TypeOf returns the first type declared for id.
func (d *Document) TypeOf(id string) (string, bool) {
	t, ok := d.typed[id]
	return t, ok
}

// AddLiteral emits a literal-valued statement.
func (d *Document) AddLiteral(subject, predicate string, value Object) {
	d.Emit(Statement{Subject: subject, Predicate: predicate, Object: value})
}

// AddRelation emits an edge between two nodes.
func (d *Document) AddRelation(subject, predicate, object string) {
	d.Emit(Statement{Subject: subject, Predicate: predicate, Object: Ref(object)})
}

// AddProperty attaches p to owner through predicate and emits the property
// node. Nothing is emitted when p violates the unit invariant.
func (d *Document) AddProperty(owner, predicate string, p Property) error {
	if err := p.Validate(); err != nil {
		return err
	}
	info := p.Kind.Info()
	d.AddRelation(owner, predicate, p.ID)
	d.Emit(Statement{Subject: p.ID, Predicate: bim.RDFType, Object: Ref(info.Class)})
	d.Emit(Statement{Subject: p.ID, Predicate: bim.Value, Object: p.Value})
	if p.Unit != units.None {
		d.AddRelation(p.ID, bim.HasUnit, string(p.Unit))
	}
	return nil
}

// Suppress removes ids from the rendered output. Statements about them and
// statements pointing at them are both dropped.
func (d *Document) Suppress(ids ...string) {
	for _, id := range ids {
		d.suppressed[id] = true
	}
}

// Suppressed reports whether id has been suppressed.
func (d *Document) Suppressed(id string) bool {
	return d.suppressed[id]
}

// Statements returns the statements that will be rendered, in emission order.
func (d *Document) Statements() []Statement {
	out := make([]Statement, 0, len(d.statements))
	for _, st := range d.statements {
		if d.suppressed[st.Subject] || (!st.Object.IsLiteral() && d.suppressed[st.Object.Ref]) {
			continue
		}
		out = append(out, st)
	}
	return out
}

// Len returns the number of statements that will be rendered.
func (d *Document) Len() int {
	return len(d.Statements())
}

// Dangling returns node references that are never described as a subject.
// Class and unit references are vocabulary terms and are not counted.
func (d *Document) Dangling() []string {
	sts := d.Statements()
	subjects := make(map[string]bool, len(sts))
	for _, st := range sts {
		subjects[st.Subject] = true
	}

	seen := make(map[string]bool)
	var out []string
	for _, st := range sts {
		if st.Object.IsLiteral() || st.Predicate == bim.RDFType || st.Predicate == bim.HasUnit {
			continue
		}
		ref := st.Object.Ref
		if subjects[ref] || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

// Render serializes the document in the given format.
func (d *Document) Render(format Format) (string, error) {
	switch format {
	case FormatTurtle, "":
		return d.toTurtle(), nil
	case FormatNTriples:
		return d.toNTriples()
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// groups returns the rendered statements grouped by subject, in the order
// subjects were first introduced.
func (d *Document) groups() [][]Statement {
	index := make(map[string]int)
	var out [][]Statement
	for _, st := range d.Statements() {
		i, ok := index[st.Subject]
		if !ok {
			i = len(out)
			index[st.Subject] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], st)
	}
	return out
}

func (d *Document) toTurtle() string {
	w := NewTurtleWriter()
	w.WriteHeader(d.baseURI, bim.Imports, d.prefixes)
	for _, group := range d.groups() {
		w.WriteSubject(group[0].Subject)
		for i, st := range group {
			w.WritePredicate(st.Predicate, st.Object, i == len(group)-1)
		}
		w.WriteBlank()
	}
	return w.String()
}

func (d *Document) toNTriples() (string, error) {
	w := NewNTriplesWriter(d.prefixes)
	for _, group := range d.groups() {
		for _, st := range group {
			if err := w.WriteTriple(st); err != nil {
				return "", err
			}
		}
	}
	return w.String(), nil
}

// escapeString escapes special characters in strings for RDF serialization.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

func isAbsoluteIRI(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "file:")
}
