package exporter_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/bimgraph/export"
	"github.com/c360studio/bimgraph/exporter"
	"github.com/c360studio/bimgraph/ident"
	"github.com/c360studio/bimgraph/model"
	"github.com/c360studio/bimgraph/vocabulary/bim"
)

// graph is a parsed document with lookup helpers.
type graph struct {
	sts []export.Statement
}

func parse(t *testing.T, res *exporter.Result) graph {
	t.Helper()
	sts, err := export.ParseTurtle(res.Document)
	require.NoError(t, err)
	return graph{sts: sts}
}

func (g graph) objects(subject, predicate string) []export.Object {
	var out []export.Object
	for _, st := range g.sts {
		if st.Subject == subject && st.Predicate == predicate {
			out = append(out, st.Object)
		}
	}
	return out
}

func (g graph) typeOf(id string) string {
	for _, o := range g.objects(id, bim.RDFType) {
		return o.Ref
	}
	return ""
}

func (g graph) mentions(id string) bool {
	for _, st := range g.sts {
		if st.Subject == id || st.Object.Ref == id {
			return true
		}
	}
	return false
}

// propertyClasses returns the classes of the property nodes of owner.
func (g graph) propertyClasses(owner string) []string {
	var out []string
	for _, o := range g.objects(owner, bim.HasProperty) {
		out = append(out, g.typeOf(o.Ref))
	}
	return out
}

func runExport(t *testing.T, src model.Provider, opts exporter.Options) *exporter.Result {
	t.Helper()
	res, err := exporter.New(opts).Export(context.Background(), src)
	require.NoError(t, err)
	return res
}

func loadOffice(t *testing.T) *model.Snapshot {
	t.Helper()
	snap, err := model.LoadFile("../model/testdata/office.yaml")
	require.NoError(t, err)
	return snap
}

var ids = ident.NewResolver(ident.ModeStable, "")

// Scenario: a space with area and cooling load but no heating load gets a
// cooling load and two airflow properties, and no heating load.
func TestExportSpaceProperties(t *testing.T) {
	snap := &model.Snapshot{
		Info:      model.Project{UniqueID: "p-1", BuildingName: "HQ"},
		LevelList: []model.Element{{UniqueID: "lvl-1", Name: "Level 1"}},
		SpaceList: []model.Element{{
			UniqueID: "spc-1",
			Name:     "Office",
			Category: model.CategorySpaces,
			LevelID:  "lvl-1",
			Parameters: map[string]model.Parameter{
				"Area":                  model.Num(20, "m2"),
				"Design Cooling Load":   model.Num(500, "W"),
				"Actual Supply Airflow": model.Num(100, "L/s"),
				"Actual Return Airflow": model.Num(90, "L/s"),
			},
		}},
	}
	res := runExport(t, snap, exporter.Options{})
	g := parse(t, res)

	spaceID := ids.EntityID(ident.RoleSpace, "spc-1")
	assert.Equal(t, bim.ClassSpace, g.typeOf(spaceID))
	assert.ElementsMatch(t,
		[]string{"ssn:DesignCoolingDemand", "ssn:DesignSupplyAirflowDemand", "ssn:DesignReturnAirflowDemand"},
		g.propertyClasses(spaceID))
	assert.NotContains(t, g.propertyClasses(spaceID), "ssn:DesignHeatingDemand")
	assert.Equal(t, []export.Object{export.Double(20)}, g.objects(spaceID, bim.HasArea))

	storeyID := ids.EntityID(ident.RoleStorey, "lvl-1")
	assert.Equal(t, []export.Object{export.Ref(spaceID)}, g.objects(storeyID, bim.HasSpace))
	assert.Equal(t, []export.Object{export.Ref(storeyID)}, g.objects(ids.EntityID(ident.RoleBuilding, "p-1"), bim.HasStorey))
	assert.Equal(t, 1, res.Counts[exporter.PhaseSpaces])
	assert.Zero(t, res.Warnings)
}

func TestExportSkipsSpacesWithoutArea(t *testing.T) {
	snap := &model.Snapshot{
		Info: model.Project{UniqueID: "p-1"},
		SpaceList: []model.Element{
			{UniqueID: "spc-0", Category: model.CategorySpaces, Parameters: map[string]model.Parameter{"Area": model.Num(0, "m2")}},
			{UniqueID: "spc-none", Category: model.CategorySpaces},
			{UniqueID: "room-1", Category: "Rooms", Parameters: map[string]model.Parameter{"Area": model.Num(12, "m2")}},
		},
	}
	res := runExport(t, snap, exporter.Options{})
	assert.Zero(t, res.Counts[exporter.PhaseSpaces])
	assert.NotContains(t, res.Document, "Space_spc")
}

// Scenario: a supply air system with two ducts gets one typed system, one
// substance and exactly one hasComponent edge per duct.
func TestExportVentilationSystem(t *testing.T) {
	snap := &model.Snapshot{
		Info: model.Project{UniqueID: "p-1"},
		VentilationList: []model.System{{
			Element:    model.Element{UniqueID: "sys-1", Name: "SA 01"},
			SystemType: "SupplyAir",
			Members:    []string{"dct-1", "dct-2"},
		}},
		DuctList: []model.Element{
			{UniqueID: "dct-2", Name: "Round Duct"},
			{UniqueID: "dct-1"},
		},
	}
	res := runExport(t, snap, exporter.Options{})
	g := parse(t, res)

	sysID := ids.EntityID(ident.RoleVentilationSystem, "sys-1")
	assert.Equal(t, bim.ClassSupplySystem, g.typeOf(sysID))

	subs := g.objects(sysID, bim.HasSubstance)
	require.Len(t, subs, 1)
	assert.Equal(t, bim.ClassSupplyAir, g.typeOf(subs[0].Ref))

	assert.Equal(t, []export.Object{
		export.Ref(ids.EntityID(ident.RoleComponent, "dct-1")),
		export.Ref(ids.EntityID(ident.RoleComponent, "dct-2")),
	}, g.objects(sysID, bim.HasComponent))
	assert.Equal(t, bim.ClassDuct, g.typeOf(ids.EntityID(ident.RoleComponent, "dct-1")))
	assert.Equal(t, 2, res.Counts[exporter.PhaseDucts])
	assert.Empty(t, res.Dangling)
}

func TestExportSkipsUnknownSystemTypes(t *testing.T) {
	snap := &model.Snapshot{
		Info: model.Project{UniqueID: "p-1"},
		VentilationList: []model.System{{
			Element:    model.Element{UniqueID: "sys-9"},
			SystemType: "OtherAir",
			Members:    []string{"dct-1"},
		}},
	}
	res := runExport(t, snap, exporter.Options{})
	assert.Zero(t, res.Counts[exporter.PhaseVentilation])
	assert.Equal(t, 1, res.Warnings)
	assert.NotContains(t, res.Document, "VentilationSys_sys-9")
}

// Scenario: a fan tagged as part of an air handling unit leaves no trace,
// including edges that point at it.
func TestExportSuppressesAHUFan(t *testing.T) {
	snap := &model.Snapshot{
		Info: model.Project{UniqueID: "p-1"},
		VentilationList: []model.System{{
			Element:    model.Element{UniqueID: "sys-1"},
			SystemType: "SupplyAir",
			Members:    []string{"fan-1", "dct-1"},
		}},
		ComponentList: []model.Element{{
			UniqueID:       "fan-1",
			ElementID:      "8801",
			Name:           "AHU supply fan",
			TypeParameters: map[string]model.Parameter{model.ExportAsParameter: model.Text("IfcAHUFan")},
			Parameters:     map[string]model.Parameter{"NominalPressureHead": model.Text("300")},
			Connectors: []model.Connector{
				{ID: "1", ConnectedTo: []model.ConnectorRef{{Owner: "dct-1", Connector: "1"}}},
			},
		}},
		DuctList: []model.Element{{
			UniqueID: "dct-1",
			Connectors: []model.Connector{
				{ID: "1", ConnectedTo: []model.ConnectorRef{{Owner: "fan-1", Connector: "1"}}},
			},
		}},
	}
	res := runExport(t, snap, exporter.Options{})
	g := parse(t, res)

	fanID := ids.EntityID(ident.RoleComponent, "fan-1")
	assert.False(t, g.mentions(fanID))
	assert.False(t, g.mentions(ids.PortID("fan-1", "1")))
	assert.NotContains(t, res.Document, "8801")
	assert.Equal(t, 1, res.Suppressed)
	assert.Zero(t, res.Counts[exporter.PhaseComponents])
	assert.Empty(t, res.Dangling)
}

func TestExportComponents(t *testing.T) {
	snap := &model.Snapshot{
		Info:      model.Project{UniqueID: "p-1"},
		SpaceList: []model.Element{{UniqueID: "spc-1", Category: model.CategorySpaces, Parameters: map[string]model.Parameter{"Area": model.Num(10, "m2")}}},
		ComponentList: []model.Element{
			{
				UniqueID:       "rad-1",
				SpaceID:        "spc-1",
				TypeParameters: map[string]model.Parameter{model.ExportAsParameter: model.Text("IfcSpaceHeater"), "NominalPower": model.Num(1200, "W")},
			},
			{
				UniqueID:       "chl-1",
				TypeParameters: map[string]model.Parameter{model.ExportAsParameter: model.Text("IfcChiller")},
			},
			{
				UniqueID: "fit-1",
				Name:     "Elbow - Steel",
				Category: model.CategoryPipeFittings,
				PartType: "Elbow",
			},
		},
	}
	res := runExport(t, snap, exporter.Options{})
	g := parse(t, res)

	radID := ids.EntityID(ident.RoleComponent, "rad-1")
	assert.Equal(t, bim.ClassRadiator, g.typeOf(radID))
	assert.Equal(t, []export.Object{export.Ref(ids.EntityID(ident.RoleSpace, "spc-1"))}, g.objects(radID, bim.TransfersHeatTo))
	assert.Equal(t, []string{"fpo:NominalPower"}, g.propertyClasses(radID))

	assert.Equal(t, bim.ClassComponent, g.typeOf(ids.EntityID(ident.RoleComponent, "chl-1")))

	fitID := ids.EntityID(ident.RoleComponent, "fit-1")
	assert.Equal(t, bim.ClassElbow, g.typeOf(fitID))
	assert.Equal(t, []string{"fpo:MaterialType"}, g.propertyClasses(fitID))
	assert.Equal(t, 3, res.Counts[exporter.PhaseComponents])
}

func TestExportOfficeSnapshot(t *testing.T) {
	res := runExport(t, loadOffice(t), exporter.Options{})
	g := parse(t, res)

	buildingID := ids.EntityID(ident.RoleBuilding, "b7c1-0001")
	assert.Equal(t, bim.ClassBuilding, g.typeOf(buildingID))
	assert.Equal(t, []export.Object{export.String(`Office "North"`)}, g.objects(buildingID, bim.RDFSLabel))

	terminalID := ids.EntityID(ident.RoleComponent, "cmp-0301")
	assert.Equal(t, bim.ClassAirTerminal, g.typeOf(terminalID))
	assert.Equal(t, []export.Object{export.Ref(ids.EntityID(ident.RoleSpace, "spc-0101"))}, g.objects(terminalID, bim.SuppliesFluidTo))
	assert.Equal(t, []export.Object{export.String("6301")}, g.objects(terminalID, bim.HasRevitID))

	assert.Equal(t, []export.Object{export.Ref(ids.PortID("dct-0402", "2"))},
		g.objects(ids.PortID("dct-0401", "1"), bim.ConnectedPort))

	assert.True(t, strings.HasPrefix(res.Document, "# baseURI: file:/"))
	assert.Contains(t, strings.SplitN(res.Document, "\n", 2)[0], "office.ttl")
	assert.Empty(t, res.Dangling)
	assert.Zero(t, res.Warnings)
	assert.Equal(t, len(g.sts), res.Statements)
}

func TestExportOfficeRoundTrip(t *testing.T) {
	res := runExport(t, loadOffice(t), exporter.Options{})
	require.Len(t, res.Triples, res.Statements)

	parsed, err := export.ParseTurtle(res.Document)
	require.NoError(t, err)
	assert.ElementsMatch(t, res.Triples, parsed)
}

func TestExportKeepsSimilarReferencesApart(t *testing.T) {
	snap := &model.Snapshot{
		Info: model.Project{UniqueID: "p-1"},
		LevelList: []model.Element{
			{UniqueID: "lvl 1", Name: "Level 1"},
			{UniqueID: "lvl-1", Name: "Level 1 (copy)"},
		},
	}
	res := runExport(t, snap, exporter.Options{})
	g := parse(t, res)

	spaced := ids.EntityID(ident.RoleStorey, "lvl 1")
	dashed := ids.EntityID(ident.RoleStorey, "lvl-1")
	require.NotEqual(t, spaced, dashed)
	assert.Equal(t, []export.Object{export.String("Level 1")}, g.objects(spaced, bim.RDFSLabel))
	assert.Equal(t, []export.Object{export.String("Level 1 (copy)")}, g.objects(dashed, bim.RDFSLabel))
	assert.ElementsMatch(t, []export.Object{export.Ref(spaced), export.Ref(dashed)},
		g.objects(ids.EntityID(ident.RoleBuilding, "p-1"), bim.HasStorey))
	assert.Equal(t, 2, res.Counts[exporter.PhaseLevels])
	assert.Zero(t, res.Warnings)
}

func TestExportSkipsHydraulicSystemWithoutFluidType(t *testing.T) {
	snap := &model.Snapshot{
		Info: model.Project{UniqueID: "p-1"},
		HydraulicList: []model.System{{
			Element:    model.Element{UniqueID: "hyd-3"},
			SystemType: "SupplyHydronic",
			Members:    []string{"pip-1"},
		}},
	}
	res := runExport(t, snap, exporter.Options{})
	assert.Zero(t, res.Counts[exporter.PhaseHydraulic])
	assert.Equal(t, 1, res.Warnings)
	assert.NotContains(t, res.Document, "HydraulicSys_hyd-3")
	assert.Empty(t, res.Dangling)
}

func TestExportIsDeterministic(t *testing.T) {
	snap := loadOffice(t)
	first := runExport(t, snap, exporter.Options{})
	second := runExport(t, snap, exporter.Options{})
	assert.Equal(t, first.Document, second.Document)
}

func TestExportRandomIDs(t *testing.T) {
	snap := loadOffice(t)
	first := runExport(t, snap, exporter.Options{IDMode: ident.ModeRandom})
	second := runExport(t, snap, exporter.Options{IDMode: ident.ModeRandom})
	assert.NotEqual(t, first.Document, second.Document)
	assert.Equal(t, first.Statements, second.Statements)
}

func TestExportNTriples(t *testing.T) {
	res := runExport(t, loadOffice(t), exporter.Options{Format: export.FormatNTriples})
	lines := strings.Split(strings.TrimSpace(res.Document), "\n")
	assert.Len(t, lines, res.Statements)
	for _, line := range lines {
		assert.True(t, strings.HasSuffix(line, " ."), line)
		assert.True(t, strings.HasPrefix(line, "<"), line)
	}
}

func TestExportSourceUnavailable(t *testing.T) {
	_, err := exporter.New(exporter.Options{}).Export(context.Background(), &model.Snapshot{})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)

	var phaseErr *exporter.PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, exporter.PhaseProject, phaseErr.Phase)
}

// failingProvider fails to enumerate components.
type failingProvider struct {
	*model.Snapshot
}

var errEnumerate = errors.New("element collector failed")

func (failingProvider) Components(context.Context) ([]model.Element, error) {
	return nil, errEnumerate
}

func TestExportPhaseFailure(t *testing.T) {
	src := failingProvider{Snapshot: &model.Snapshot{Info: model.Project{UniqueID: "p-1"}}}
	res, err := exporter.New(exporter.Options{}).Export(context.Background(), src)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, errEnumerate)

	var phaseErr *exporter.PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, exporter.PhaseComponents, phaseErr.Phase)
}

type recorder struct {
	mu       sync.Mutex
	phases   []string
	outcomes []string
}

func (r *recorder) ObservePhase(phase string, _, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, phase)
}

func (r *recorder) ObservePass(outcome string, _ time.Duration, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func TestExportObserver(t *testing.T) {
	rec := &recorder{}
	runExport(t, loadOffice(t), exporter.Options{Observer: rec})

	want := make([]string, 0, len(exporter.Phases))
	for _, p := range exporter.Phases {
		want = append(want, string(p))
	}
	assert.Equal(t, want, rec.phases)
	assert.Equal(t, []string{exporter.OutcomeSuccess}, rec.outcomes)
}

func TestExportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	_, err := exporter.New(exporter.Options{Observer: rec}).Export(ctx, loadOffice(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.phases)
	assert.Equal(t, []string{exporter.OutcomeCancelled}, rec.outcomes)
}

func TestTurtlePath(t *testing.T) {
	assert.Equal(t, "/models/office.ttl", exporter.TurtlePath("/models/office.rvt"))
	assert.Equal(t, "office.ttl", exporter.TurtlePath("office.yaml"))
	assert.Equal(t, "file:/models/office.ttl", exporter.FileURI("/models/office.ttl"))
}
