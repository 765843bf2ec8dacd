// Package pipeline runs a complete conservation gap analysis: it builds the
// MPA/ecosection layer, measures every feature layer against it, scores
// interactions and assembles the output tables.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jcristia/CGA/internal/logging"
	"github.com/jcristia/CGA/pkg/apperr"
	"github.com/jcristia/CGA/pkg/bioregion"
	"github.com/jcristia/CGA/pkg/catalog"
	"github.com/jcristia/CGA/pkg/config"
	"github.com/jcristia/CGA/pkg/geo"
	"github.com/jcristia/CGA/pkg/interaction"
	"github.com/jcristia/CGA/pkg/loader"
	"github.com/jcristia/CGA/pkg/matrix"
	"github.com/jcristia/CGA/pkg/mpa"
	"github.com/jcristia/CGA/pkg/presence"
	"github.com/jcristia/CGA/pkg/report"
	"github.com/jcristia/CGA/pkg/resolve"
	"github.com/jcristia/CGA/pkg/validation"
	"github.com/jcristia/CGA/pkg/workspace"
)

// Observer receives per-layer progress. It must be safe for concurrent
// use.
type Observer interface {
	LayerProcessed(kind string, includedMPAs int)
}

// Options are the collaborators of a Pipeline. Catalog is required; Engine
// defaults to the planar engine.
type Options struct {
	Catalog  catalog.Catalog
	Engine   geo.Engine
	Logger   logging.Logger
	Observer Observer
}

// Pipeline runs analyses for one configuration.
type Pipeline struct {
	cfg  *config.Config
	opts Options
	log  logging.Logger
}

// Result is the output of a run. Report is set even when Run fails after
// configuration was validated.
type Result struct {
	RunID          uuid.UUID              `json:"run_id"`
	Started        time.Time              `json:"started"`
	Finished       time.Time              `json:"finished"`
	Classification catalog.Classification `json:"classification"`
	MPAs           []mpa.MPA              `json:"mpas"`
	Scores         interaction.Scores     `json:"scores"`
	Tables         *report.Tables         `json:"tables"`
	Report         *validation.Report     `json:"report"`
}

// New returns a pipeline for cfg.
func New(cfg *config.Config, opts Options) (*Pipeline, error) {
	if cfg == nil {
		return nil, apperr.Configf("configuration is required")
	}
	if opts.Catalog == nil {
		return nil, apperr.Configf("a layer catalog is required")
	}
	if opts.Engine == nil {
		opts.Engine = geo.NewPlanar()
	}
	return &Pipeline{cfg: cfg, opts: opts, log: logging.OrNop(opts.Logger)}, nil
}

// inputs are the static tables of a run, read in full before any geometry.
type inputs struct {
	target       geo.CRS
	scaling      *resolve.Scaling
	thresholds   *resolve.Thresholds
	inclusion    *matrix.Inclusion
	interactions *matrix.Interactions
	overrides    matrix.Overrides
}

func (p *Pipeline) loadInputs() (*inputs, error) {
	c := p.cfg
	in := &inputs{overrides: matrix.Overrides{
		Y: c.Inclusion.OverrideY,
		N: c.Inclusion.OverrideN,
		U: c.Inclusion.OverrideU,
	}}
	var err error
	if in.target, err = c.Target(); err != nil {
		return nil, err
	}
	if in.scaling, err = resolve.LoadScaling(c.Scaling.Attribute, c.Path(c.Scaling.File)); err != nil {
		return nil, err
	}
	if in.thresholds, err = resolve.LoadThresholds(c.Presence.CPThreshold, c.Presence.HUThreshold, c.Path(c.Presence.ThresholdFile)); err != nil {
		return nil, err
	}
	if in.inclusion, err = matrix.LoadInclusion(c.Path(c.Inclusion.Matrix)); err != nil {
		return nil, err
	}
	if in.interactions, err = matrix.LoadInteractions(c.Path(c.Interactions.Matrix)); err != nil {
		return nil, err
	}
	return in, nil
}

// Check validates the configuration, reads the input tables and classifies
// the catalog without touching geometry.
func (p *Pipeline) Check(ctx context.Context) (catalog.Classification, *validation.Report, error) {
	class, rep, _, err := p.check(ctx)
	return class, rep, err
}

func (p *Pipeline) check(ctx context.Context) (catalog.Classification, *validation.Report, *inputs, error) {
	rep := validation.ValidateConfig(p.cfg)
	if !rep.Valid {
		return catalog.Classification{}, rep, nil, rep.Err()
	}
	in, err := p.loadInputs()
	if err != nil {
		return catalog.Classification{}, rep, nil, err
	}
	rep.AddInfo(validation.Result{
		Level:       validation.LevelConfig,
		Message:     "interaction matrix loaded",
		Path:        "interactions.matrix",
		ActualValue: in.interactions.Len(),
	})
	class, err := p.classify(ctx)
	if err != nil {
		return catalog.Classification{}, rep, nil, err
	}
	for _, name := range class.Ignored {
		rep.AddInfo(validation.Result{Level: validation.LevelConfig, Layer: name, Message: "dataset ignored"})
	}
	return class, rep, in, nil
}

func (p *Pipeline) classify(ctx context.Context) (catalog.Classification, error) {
	entries, err := p.opts.Catalog.List(ctx)
	if err != nil {
		return catalog.Classification{}, fmt.Errorf("listing catalog: %w", err)
	}
	return catalog.Classify(entries, p.cfg.Rules())
}

// Run executes the analysis. The first error aborts the run; no tables are
// produced in that case.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{Started: time.Now()}

	class, rep, in, err := p.check(ctx)
	res.Report = rep
	if err != nil {
		return res, err
	}
	res.Classification = class

	ws, err := workspace.Create(workspace.Options{
		Root:      p.cfg.Path(p.cfg.Workspace.Dir),
		Cleanup:   p.cfg.Workspace.Cleanup,
		Snapshots: p.cfg.Workspace.Snapshots,
	})
	if err != nil {
		return res, err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			p.log.Warn("workspace cleanup failed", logging.Err(cerr))
		}
	}()
	res.RunID = ws.RunID
	log := p.log.With(logging.String("run_id", ws.RunID.String()))
	log.Info("run started",
		logging.Int("mpa_layers", len(class.MPA)),
		logging.Int("feature_layers", len(class.Features)),
		logging.Int("workers", p.workers()))

	engine := p.opts.Engine
	ld := loader.New(engine, loader.Options{
		Target:          in.target,
		Scaling:         in.scaling,
		EcosectionField: p.cfg.Layers.EcosectionField,
		Logger:          log,
	})

	base, err := p.buildMPAs(ctx, class, engine, ld, log, rep)
	if err != nil {
		return res, err
	}
	for _, id := range base.IDs() {
		res.MPAs = append(res.MPAs, base.MPAs[id])
	}
	if _, err := ws.WriteShapes("mpa_sections", base.Shapes(), func(i int) map[string]interface{} {
		s := base.Sections[i]
		return map[string]interface{}{"mpa": s.MPA, "ecosection": s.Ecosection, "subregion": s.Subregion, "section_area": s.SectionArea}
	}); err != nil {
		return res, err
	}

	agg := presence.NewAggregator(engine, presence.Options{
		Thresholds: in.thresholds,
		Inclusion:  in.inclusion,
		Overrides:  in.overrides,
		Logger:     log,
	})
	results, err := p.measure(ctx, class.Features, ld, agg, base, log)
	if err != nil {
		return res, err
	}

	hu, cp := presence.NewSet(bioregion.KindHU), presence.NewSet(bioregion.KindCP)
	for _, r := range results {
		rep.Merge(r.Report)
		hu.Add(r)
		cp.Add(r)
	}

	scorer := interaction.NewScorer(in.interactions, interaction.Options{
		Inclusion:   in.inclusion,
		Overrides:   in.overrides,
		Conventions: p.cfg.Rules().Layers,
		Logger:      log,
	})
	scores, srep := scorer.Score(hu, cp)
	rep.Merge(srep)
	res.Scores = scores

	res.Tables = report.NewBuilder(p.cfg.Ecosections(), p.cfg.Subregions()).Build(hu, cp, scores)
	res.Finished = time.Now()
	log.Info("run finished",
		logging.Duration("took", res.Finished.Sub(res.Started)),
		logging.Int("table1_rows", len(res.Tables.Table1)),
		logging.String("diagnostics", rep.Summary))
	return res, nil
}

func (p *Pipeline) workers() int {
	if p.cfg.Workers < 1 {
		return 1
	}
	return p.cfg.Workers
}

func (p *Pipeline) buildMPAs(ctx context.Context, class catalog.Classification, engine geo.Engine, ld *loader.Loader, log logging.Logger, rep *validation.Report) (*mpa.Layer, error) {
	var in mpa.Input
	for _, name := range class.MPA {
		raw, err := p.opts.Catalog.Open(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		in.MPAs = append(in.MPAs, raw)
	}
	var err error
	if in.Subregions, err = p.opts.Catalog.Open(ctx, class.Subregions); err != nil {
		return nil, fmt.Errorf("opening %s: %w", class.Subregions, err)
	}
	if in.Ecosections, err = p.opts.Catalog.Open(ctx, class.Ecosections); err != nil {
		return nil, fmt.Errorf("opening %s: %w", class.Ecosections, err)
	}

	b := mpa.NewBuilder(engine, ld, mpa.Options{
		NameFields:      p.cfg.MPA.NameFields,
		EcosectionField: p.cfg.Layers.EcosectionField,
		SubregionField:  p.cfg.Layers.SubregionField,
		Logger:          log,
	})
	layer, brep, err := b.Build(in)
	if err != nil {
		return nil, err
	}
	rep.Merge(brep)
	return layer, nil
}

// measure runs every feature layer through the loader and aggregator.
// Results keep catalog order whatever the number of workers.
func (p *Pipeline) measure(ctx context.Context, ids []bioregion.Identity, ld *loader.Loader, agg *presence.Aggregator, base *mpa.Layer, log logging.Logger) ([]*presence.Result, error) {
	results := make([]*presence.Result, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())

	// base is read-only from here on
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := p.opts.Catalog.Open(ctx, id.Dataset)
			if err != nil {
				return fmt.Errorf("opening %s: %w", id.Dataset, err)
			}
			layer, err := ld.Load(raw, id, p.cfg.Complex(id.Dataset))
			if err != nil {
				return err
			}
			r, err := agg.Aggregate(layer, base)
			if err != nil {
				return err
			}
			results[i] = r
			if p.opts.Observer != nil {
				p.opts.Observer.LayerProcessed(string(id.Kind), len(r.Presence))
			}
			log.Debug("layer measured", logging.Layer(id.Dataset), logging.Int("included", len(r.Presence)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
