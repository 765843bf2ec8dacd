package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jcristia/CGA/internal/logging"
	"github.com/jcristia/CGA/internal/metrics"
	"github.com/jcristia/CGA/internal/server"
	"github.com/jcristia/CGA/pkg/catalog"
	"github.com/jcristia/CGA/pkg/config"
	"github.com/jcristia/CGA/pkg/geo"
	"github.com/jcristia/CGA/pkg/pipeline"
)

// loadConfig reads cga.yaml and applies environment and flag overrides.
func (a *app) loadConfig(projectPath string) (*config.Config, error) {
	cfg, err := config.LoadProject(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if dsn := a.v.GetString("catalog.dsn"); dsn != "" {
		cfg.Catalog.DSN = dsn
	}
	if n := a.v.GetInt("workers"); n > 0 {
		cfg.Workers = n
	}
	return cfg, nil
}

// newPipeline wires the catalog, instrumented engine and logger for cfg.
// The returned func releases the catalog.
func (a *app) newPipeline(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*pipeline.Pipeline, func(), error) {
	cat, closeCat, err := pipeline.OpenCatalog(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	opts := pipeline.Options{Catalog: cat, Engine: geo.NewPlanar(), Logger: a.log}
	if m != nil {
		opts.Engine = m.Engine(opts.Engine)
		opts.Observer = m
	}
	p, err := pipeline.New(cfg, opts)
	if err != nil {
		closeCat()
		return nil, nil, err
	}
	return p, closeCat, nil
}

func (a *app) runAnalyze(ctx context.Context, projectPath string) error {
	cfg, err := a.loadConfig(projectPath)
	if err != nil {
		return err
	}
	m, err := metrics.New("cga")
	if err != nil {
		return err
	}
	p, closeCat, err := a.newPipeline(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer closeCat()

	start := time.Now()
	res, err := p.Run(ctx)
	m.RunFinished(err, time.Since(start))
	if path := a.v.GetString("metrics-file"); path != "" {
		if werr := m.WriteTextfile(path); werr != nil {
			a.log.Warn("metrics textfile not written", logging.Err(werr))
		}
	}
	if res != nil && res.Report != nil {
		printValidationReport(res.Report)
	}
	if err != nil {
		return err
	}

	if err := pipeline.WriteTables(cfg, res); err != nil {
		return fmt.Errorf("writing tables: %w", err)
	}
	printRunSummary(cfg, res)

	if !res.Report.Valid {
		return fmt.Errorf("run completed with %s", res.Report.Summary)
	}
	return nil
}

func (a *app) runValidate(ctx context.Context, projectPath string) error {
	cfg, err := a.loadConfig(projectPath)
	if err != nil {
		return err
	}
	p, closeCat, err := a.newPipeline(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer closeCat()

	class, rep, err := p.Check(ctx)
	if rep != nil {
		printValidationReport(rep)
	}
	if err != nil {
		return err
	}
	printClassification(class)
	if !rep.Valid {
		return fmt.Errorf("validation failed: %s", rep.Summary)
	}
	return nil
}

func (a *app) runLayers(ctx context.Context, projectPath string) error {
	cfg, err := a.loadConfig(projectPath)
	if err != nil {
		return err
	}
	cat, closeCat, err := pipeline.OpenCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCat()

	entries, err := cat.List(ctx)
	if err != nil {
		return fmt.Errorf("listing catalog: %w", err)
	}
	class, err := catalog.Classify(entries, cfg.Rules())
	if err != nil {
		return err
	}
	printLayers(entries, class)
	return nil
}

func (a *app) runServe(ctx context.Context, projectPath string) error {
	cfg, err := a.loadConfig(projectPath)
	if err != nil {
		return err
	}
	m, err := metrics.New("cga")
	if err != nil {
		return err
	}
	p, closeCat, err := a.newPipeline(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer closeCat()

	srv := server.New(server.Options{
		ProjectPath: projectPath,
		Port:        a.v.GetInt("port"),
		Run:         p.Run,
		Metrics:     m,
		Logger:      a.log,
	})
	return srv.Start(ctx)
}
