package classify

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/c360studio/bimgraph/export"
	"github.com/c360studio/bimgraph/ident"
	"github.com/c360studio/bimgraph/model"
	"github.com/c360studio/bimgraph/units"
	"github.com/c360studio/bimgraph/vocabulary/bim"
)

// ErrNotNumeric is returned when a text parameter holds no leading number.
var ErrNotNumeric = errors.New("parameter value is not numeric")

// ExtractError reports a candidate property that was present but could not
// be extracted. The property is omitted; the element is kept.
type ExtractError struct {
	Kind  bim.PropertyKind
	Param string
	Err   error
}

func (e *ExtractError) Error() string {
	name := string(e.Kind)
	if name == "" {
		name = e.Param
	}
	return fmt.Sprintf("extract %s from %q: %v", name, e.Param, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Measurement is one extracted value before it is given an identifier.
type Measurement struct {
	Kind  bim.PropertyKind
	Value export.Object
	Unit  units.Ontology
	// Literal is the owner predicate for values written as literals.
	Literal string
}

// Extract runs plan against el. Candidates whose parameter is absent are
// skipped silently; candidates that are present but unusable are reported.
func Extract(el *model.Element, plan []Step) ([]Measurement, []error) {
	var (
		out  []Measurement
		errs []error
	)
	for _, step := range plan {
		m, ok, err := extractStep(el, step)
		if err != nil {
			errs = append(errs, &ExtractError{Kind: step.Kind, Param: step.Param, Err: err})
			continue
		}
		if ok {
			out = append(out, m)
		}
	}
	return out, errs
}

func extractStep(el *model.Element, step Step) (Measurement, bool, error) {
	if step.FromName {
		if el.Name == "" {
			return Measurement{}, false, nil
		}
		return Measurement{Kind: step.Kind, Value: export.String(el.Name)}, true, nil
	}

	p, ok := lookup(el, step)
	if !ok {
		return Measurement{}, false, nil
	}
	return Measure(p, step)
}

// Measure converts one present parameter according to step. It reports
// false when the step skips the value.
func Measure(p model.Parameter, step Step) (Measurement, bool, error) {
	if !p.Present() {
		return Measurement{}, false, nil
	}

	if step.Literal == "" && step.Kind.Info().Dimension == bim.Classifier {
		if p.Text != nil {
			return Measurement{Kind: step.Kind, Value: export.String(*p.Text)}, true, nil
		}
		return Measurement{Kind: step.Kind, Value: export.String(export.FormatDouble(*p.Number))}, true, nil
	}

	value, err := numeric(p, step)
	if err != nil {
		return Measurement{}, false, err
	}
	if step.SkipZero && value == 0 {
		return Measurement{}, false, nil
	}

	m := Measurement{Kind: step.Kind, Value: export.Double(value), Literal: step.Literal}
	if step.Literal == "" && step.Kind.Physical() {
		m.Unit = step.To
	}
	return m, true, nil
}

func lookup(el *model.Element, step Step) (model.Parameter, bool) {
	if step.Source == TypeLevel {
		return el.TypeParam(step.Param)
	}
	return el.Param(step.Param)
}

// numeric converts a parameter to the step's target unit. Text values are
// taken to be in the target unit already.
func numeric(p model.Parameter, step Step) (float64, error) {
	if p.Number != nil {
		from := step.From
		if p.Unit != "" {
			from = units.Internal(p.Unit)
		}
		return units.Convert(*p.Number, from, step.To)
	}
	v, ok := LeadingNumber(*p.Text)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, *p.Text)
	}
	return v, nil
}

var leadingNumber = regexp.MustCompile(`^\s*([+-]?(?:\d+(?:[.,]\d*)?|[.,]\d+)(?:[eE][+-]?\d+)?)`)

// LeadingNumber parses the number at the start of s, ignoring any unit
// suffix. A decimal comma is accepted.
func LeadingNumber(s string) (float64, bool) {
	m := leadingNumber.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Emit writes one measurement onto owner: literals directly, everything
// else as a property node with a synthetic identifier.
func Emit(doc *export.Document, ids *ident.Resolver, owner string, m Measurement) error {
	if m.Literal != "" {
		doc.AddLiteral(owner, m.Literal, m.Value)
		return nil
	}
	return doc.AddProperty(owner, bim.HasProperty, export.Property{
		ID:    ids.Synthetic(owner, m.Kind.Info().IDPrefix),
		Kind:  m.Kind,
		Value: m.Value,
		Unit:  m.Unit,
	})
}

// Apply extracts plan from el and emits the results onto owner. It returns
// the number of values written and the per-property failures.
func Apply(doc *export.Document, ids *ident.Resolver, owner string, el *model.Element, plan []Step) (int, []error) {
	ms, errs := Extract(el, plan)
	n := 0
	for _, m := range ms {
		if err := Emit(doc, ids, owner, m); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errs
}

// Identify writes the host element id of el onto owner.
func Identify(doc *export.Document, owner string, el *model.Element) {
	if el.ElementID != "" {
		doc.AddLiteral(owner, bim.HasRevitID, export.String(el.ElementID))
	}
}

// Area returns the floor area of a space in square meters.
func Area(el *model.Element) (float64, bool) {
	p, ok := lookup(el, AreaStep)
	if !ok {
		return 0, false
	}
	v, err := numeric(p, AreaStep)
	if err != nil {
		return 0, false
	}
	return v, true
}
