package export_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/bimgraph/export"
	"github.com/c360studio/bimgraph/units"
	"github.com/c360studio/bimgraph/vocabulary/bim"
)

func TestParseTurtleRoundTrip(t *testing.T) {
	doc := export.NewDocument("https://acme.test/b1#")
	doc.SetBaseURI("file:/tmp/b1.ttl")
	require.NoError(t, doc.AddEntity(export.Entity{ID: "inst:Building_b1", Type: bim.ClassBuilding, Label: "HQ; \"main\" building."}))
	doc.AddLiteral("inst:Building_b1", bim.HasGUID, export.String("b1"))
	require.NoError(t, doc.AddEntity(export.Entity{ID: "inst:Comp_7", Type: bim.ClassDuct, Label: "Rect 200x100."}))
	require.NoError(t, doc.AddProperty("inst:Comp_7", bim.HasProperty, export.Property{
		ID: "inst:Length_7", Kind: bim.Length, Value: export.Double(3.048), Unit: units.M,
	}))
	require.NoError(t, doc.AddProperty("inst:Comp_7", bim.HasProperty, export.Property{
		ID: "inst:FrictionFactor_7", Kind: bim.FrictionFactor, Value: export.Double(0.02),
	}))
	doc.AddRelation("inst:Comp_7", bim.HasPort, "inst:Port_7-1")
	doc.Ensure("inst:Port_7-1", bim.ClassPort)

	rendered, err := doc.Render(export.FormatTurtle)
	require.NoError(t, err)

	parsed, err := export.ParseTurtle(rendered)
	require.NoError(t, err)
	assert.ElementsMatch(t, doc.Statements(), parsed, "rendering groups by subject, so only the multiset survives")
}

func TestParseTurtleLists(t *testing.T) {
	src := `@prefix ex: <http://example.org/> .
# a comment
ex:a ex:p ex:b , ex:c ;
    ex:q "x"@en ;
    ex:r <http://example.org/d> ;
    .
<http://example.org/e> a ex:T .
`
	parsed, err := export.ParseTurtle(src)
	require.NoError(t, err)
	require.Len(t, parsed, 5)

	assert.Equal(t, export.Statement{Subject: "ex:a", Predicate: "ex:p", Object: export.Ref("ex:b")}, parsed[0])
	assert.Equal(t, export.Ref("ex:c"), parsed[1].Object)
	assert.Equal(t, "x", parsed[2].Object.Lexical)
	assert.True(t, parsed[2].Object.IsLiteral())
	assert.Equal(t, "http://example.org/d", parsed[3].Object.Ref)
	assert.Equal(t, "http://example.org/e", parsed[4].Subject)
	assert.Equal(t, "a", parsed[4].Predicate)
}

func TestParseTurtleErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"undeclared prefix", "ex:a ex:p ex:b ."},
		{"unterminated literal", "@prefix ex: <http://e/> .\nex:a ex:p \"open ."},
		{"missing terminator", "@prefix ex: <http://e/> .\nex:a ex:p ex:b"},
		{"bad prefix directive", "@prefix ex <http://e/> ."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := export.ParseTurtle(tt.src)
			assert.Error(t, err)
		})
	}
}

func TestParseTurtleReportsLine(t *testing.T) {
	_, err := export.ParseTurtle("@prefix ex: <http://e/> .\n\nfoo:a ex:p ex:b .")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}
