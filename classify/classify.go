// Package classify maps host elements to ontology classes and extracts
// their properties according to a static rule table.
package classify

import (
	"strings"

	"github.com/c360studio/bimgraph/model"
	"github.com/c360studio/bimgraph/vocabulary/bim"
)

// Classification is the outcome of classifying one element.
type Classification struct {
	Type     string
	Plan     []Step
	Behavior Behavior
	// Fallback is set when no specific rule matched and a generic
	// supertype was chosen.
	Fallback bool
	// Suppressed elements produce no statements at all.
	Suppressed bool
}

func fromRule(r Rule) Classification {
	return Classification{Type: r.Type, Plan: r.Plan, Behavior: r.Behavior, Suppressed: r.Suppress}
}

// Classify picks the ontology class and extraction plan for an element.
// Fittings dispatch on their part type, elements of a known category on
// the category, everything else on the export classification tag. The
// result always carries a type unless the element is suppressed.
func Classify(category, tag string, el *model.Element) Classification {
	if category == model.CategoryPipeFittings || category == model.CategoryDuctFittings {
		partType := ""
		if el != nil {
			partType = strings.TrimSpace(el.PartType)
		}
		if r, ok := fittingRules[partType]; ok {
			return fromRule(r)
		}
		return Classification{Type: bim.ClassFitting, Fallback: true}
	}

	if r, ok := categoryRules[category]; ok {
		return fromRule(r)
	}

	if r, ok := tagRules[TagName(tag)]; ok {
		return fromRule(r)
	}
	return Classification{Type: bim.ClassComponent, Fallback: true}
}

// TagName normalizes an export classification tag: surrounding space and
// the optional "Ifc" prefix are removed.
func TagName(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "Ifc")
}
