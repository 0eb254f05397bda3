package exporter

import (
	"context"
	"log/slog"

	"github.com/c360studio/bimgraph/classify"
	"github.com/c360studio/bimgraph/export"
	"github.com/c360studio/bimgraph/ident"
	"github.com/c360studio/bimgraph/model"
	"github.com/c360studio/bimgraph/relate"
	"github.com/c360studio/bimgraph/vocabulary/bim"
)

// pass holds the state of one export. Each pass owns its document and
// resolver.
type pass struct {
	opts   Options
	logger *slog.Logger
	doc    *export.Document
	ids    *ident.Resolver
	src    model.Provider
	result *Result

	buildingID string
	// levels maps level ids to storey ids.
	levels   map[string]string
	failures int
}

func (p *pass) run(ctx context.Context) error {
	steps := []struct {
		phase Phase
		fn    func(context.Context) error
	}{
		{PhaseProject, p.project},
		{PhaseLevels, p.storeys},
		{PhaseSpaces, p.spaces},
		{PhaseVentilation, p.ventilation},
		{PhaseHydraulic, p.hydraulic},
		{PhaseComponents, p.components},
		{PhasePipes, p.pipes},
		{PhaseDucts, p.ducts},
		{PhaseRender, p.render},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return &PhaseError{Phase: step.phase, Err: err}
		}
		p.failures = 0
		if err := step.fn(ctx); err != nil {
			return &PhaseError{Phase: step.phase, Err: err}
		}
		if p.opts.Observer != nil {
			p.opts.Observer.ObservePhase(string(step.phase), p.result.Counts[step.phase], p.failures)
		}
		p.logger.Debug("Phase complete",
			"phase", step.phase,
			"elements", p.result.Counts[step.phase],
			"failures", p.failures)
	}
	return nil
}

// warn records a recoverable failure on one element.
func (p *pass) warn(phase Phase, elementID string, err error) {
	p.failures++
	p.result.Warnings++
	p.logger.Warn("Element partially exported",
		"phase", phase,
		"element", elementID,
		"error", err)
}

func (p *pass) warnAll(phase Phase, elementID string, errs []error) {
	for _, err := range errs {
		p.warn(phase, elementID, err)
	}
}

func (p *pass) project(ctx context.Context) error {
	proj, err := p.src.Project(ctx)
	if err != nil {
		return err
	}
	p.result.Project = proj

	baseURI := p.opts.BaseURI
	if baseURI == "" && proj.Path != "" {
		baseURI = FileURI(TurtlePath(proj.Path))
	}
	p.doc.SetBaseURI(baseURI)

	p.buildingID = p.ids.EntityID(ident.RoleBuilding, proj.UniqueID)
	if err := p.doc.AddEntity(export.Entity{ID: p.buildingID, Type: bim.ClassBuilding, Label: proj.BuildingName}); err != nil {
		return err
	}
	p.doc.AddLiteral(p.buildingID, bim.HasGUID, export.String(proj.UniqueID))
	p.result.Counts[PhaseProject] = 1
	return nil
}

func (p *pass) storeys(ctx context.Context) error {
	levels, err := p.src.Levels(ctx)
	if err != nil {
		return err
	}
	levels = sortByID(levels)

	for i := range levels {
		el := &levels[i]
		id := p.ids.EntityID(ident.RoleStorey, el.UniqueID)
		if err := p.entity(id, bim.ClassStorey, el); err != nil {
			p.warn(PhaseLevels, el.UniqueID, err)
			continue
		}
		relate.Contain(p.doc, p.buildingID, bim.HasStorey, id)
		p.levels[el.UniqueID] = id
		p.result.Counts[PhaseLevels]++
	}
	return nil
}

func (p *pass) spaces(ctx context.Context) error {
	spaces, err := p.src.Spaces(ctx)
	if err != nil {
		return err
	}
	spaces = sortByID(spaces)

	for i := range spaces {
		el := &spaces[i]
		if el.Category != "" && el.Category != model.CategorySpaces {
			continue
		}
		if area, ok := classify.Area(el); !ok || area <= 0 {
			p.logger.Debug("Skipping unplaced space", "element", el.UniqueID)
			continue
		}

		c := classify.Classify(model.CategorySpaces, "", el)
		id := p.ids.EntityID(ident.RoleSpace, el.UniqueID)
		if err := p.entity(id, c.Type, el); err != nil {
			p.warn(PhaseSpaces, el.UniqueID, err)
			continue
		}
		if storeyID, ok := p.levels[el.LevelID]; ok {
			relate.Contain(p.doc, storeyID, bim.HasSpace, id)
		} else {
			p.warn(PhaseSpaces, el.UniqueID, &relate.MissingRequiredContextError{Element: id, Relation: bim.HasSpace, Anchor: "storey"})
		}
		_, errs := classify.Apply(p.doc, p.ids, id, el, c.Plan)
		p.warnAll(PhaseSpaces, el.UniqueID, errs)
		p.result.Counts[PhaseSpaces]++
	}
	return nil
}

func (p *pass) ventilation(ctx context.Context) error {
	systems, err := p.src.VentilationSystems(ctx)
	if err != nil {
		return err
	}
	return p.systems(PhaseVentilation, ident.RoleVentilationSystem, relate.VentilationSystem, systems)
}

func (p *pass) hydraulic(ctx context.Context) error {
	systems, err := p.src.HydraulicSystems(ctx)
	if err != nil {
		return err
	}
	return p.systems(PhaseHydraulic, ident.RoleHydraulicSystem, relate.HydraulicSystem, systems)
}

func (p *pass) systems(phase Phase, role ident.Role, lookup func(string) (relate.SystemClass, bool), systems []model.System) error {
	systems = sortSystems(systems)
	for i := range systems {
		sys := &systems[i]
		class, ok := lookup(sys.SystemType)
		if !ok {
			p.warn(phase, sys.UniqueID, &relate.UnknownSystemTypeError{System: sys.UniqueID, Type: sys.SystemType})
			continue
		}
		if err := relate.CheckSystem(class, sys); err != nil {
			p.warn(phase, sys.UniqueID, err)
			continue
		}
		id := p.ids.EntityID(role, sys.UniqueID)
		p.warnAll(phase, sys.UniqueID, relate.System(p.doc, p.ids, id, class, sys))
		p.result.Counts[phase]++
	}
	return nil
}

func (p *pass) components(ctx context.Context) error {
	els, err := p.src.Components(ctx)
	if err != nil {
		return err
	}
	els = sortByID(els)
	for i := range els {
		p.component(PhaseComponents, els[i].Category, &els[i])
	}
	return nil
}

func (p *pass) pipes(ctx context.Context) error {
	els, err := p.src.Pipes(ctx)
	if err != nil {
		return err
	}
	els = sortByID(els)
	for i := range els {
		p.component(PhasePipes, model.CategoryPipes, &els[i])
	}
	return nil
}

func (p *pass) ducts(ctx context.Context) error {
	els, err := p.src.Ducts(ctx)
	if err != nil {
		return err
	}
	els = sortByID(els)
	for i := range els {
		p.component(PhaseDucts, model.CategoryDucts, &els[i])
	}
	return nil
}

// component classifies one element and emits it with its properties,
// functional relations and ports.
func (p *pass) component(phase Phase, category string, el *model.Element) {
	id := p.ids.EntityID(ident.RoleComponent, el.UniqueID)
	c := classify.Classify(category, el.ExportTag(), el)
	if c.Suppressed {
		p.doc.Suppress(append([]string{id}, relate.PortIDs(p.ids, el)...)...)
		p.result.Suppressed++
		p.logger.Debug("Suppressed element", "phase", phase, "element", el.UniqueID, "tag", el.ExportTag())
		return
	}
	if c.Fallback {
		p.logger.Debug("No classification rule matched",
			"phase", phase,
			"element", el.UniqueID,
			"category", category,
			"type", c.Type)
	}

	if err := p.entity(id, c.Type, el); err != nil {
		p.warn(phase, el.UniqueID, err)
		return
	}
	_, errs := classify.Apply(p.doc, p.ids, id, el, c.Plan)
	p.warnAll(phase, el.UniqueID, errs)

	switch c.Behavior {
	case classify.BehaviorHeatTransfer:
		if err := relate.HeatTransfer(p.doc, p.ids, id, el); err != nil {
			p.warn(phase, el.UniqueID, err)
		}
	case classify.BehaviorAirTerminal:
		if err := relate.AirTerminal(p.doc, p.ids, id, el); err != nil {
			p.warn(phase, el.UniqueID, err)
		}
	}

	relate.Ports(p.doc, p.opts.Connectors, p.ids, el, id)
	p.result.Counts[phase]++
}

// entity emits the type, label, guid and host id shared by every
// model-backed entity.
func (p *pass) entity(id, class string, el *model.Element) error {
	if err := p.doc.AddEntity(export.Entity{ID: id, Type: class, Label: el.Name}); err != nil {
		return err
	}
	p.doc.AddLiteral(id, bim.HasGUID, export.String(el.UniqueID))
	classify.Identify(p.doc, id, el)
	return nil
}

func (p *pass) render(context.Context) error {
	out, err := p.doc.Render(p.opts.Format)
	if err != nil {
		return err
	}
	p.result.Document = out
	p.result.Triples = p.doc.Statements()
	p.result.Statements = len(p.result.Triples)
	p.result.Dangling = p.doc.Dangling()
	for _, ref := range p.result.Dangling {
		p.logger.Warn("Dangling reference", "ref", ref)
	}
	p.result.Counts[PhaseRender] = 1
	return nil
}
