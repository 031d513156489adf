package seeder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rana718/ddlseed/internal/config"
	"github.com/Rana718/ddlseed/internal/export"
	"github.com/Rana718/ddlseed/internal/types"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

// progress prints status lines unless quiet.
type progress struct {
	quiet bool
}

func (p progress) info(format string, args ...interface{}) {
	if !p.quiet {
		color.Cyan(format, args...)
	}
}

func (p progress) warn(format string, args ...interface{}) {
	if !p.quiet {
		color.Yellow(format, args...)
	}
}

func (p progress) success(format string, args ...interface{}) {
	if !p.quiet {
		color.Green(format, args...)
	}
}

// Seeder runs generations with options taken from the app config.
type Seeder struct {
	config *config.Config
	opts   Options
}

func NewSeeder(cfg *config.Config) (*Seeder, error) {
	dialect, err := export.ParseDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return &Seeder{
		config: cfg,
		opts: Options{
			OutputDir:  cfg.OutputDir,
			Dialect:    dialect,
			MaxRetries: cfg.MaxRetries,
		},
	}, nil
}

// Options returns a copy of the options the seeder generates with.
func (s *Seeder) Options() Options {
	return s.opts
}

// WithQuiet returns a seeder that prints nothing.
func (s *Seeder) WithQuiet(quiet bool) *Seeder {
	out := *s
	out.opts.Quiet = quiet
	return &out
}

func (s *Seeder) Generate(ctx context.Context, cfg *types.GenerationConfig, schema *types.Schema, outputName string) (string, error) {
	return Generate(ctx, cfg, schema, outputName, s.opts)
}

// Generate validates cfg against schema, synthesizes rows for every
// configured table in dependency order and writes them in the configured
// format. It returns the path of the written file. A config that fails
// validation yields a *ValidationError and no file.
func Generate(ctx context.Context, cfg *types.GenerationConfig, schema *types.Schema, outputName string, opts Options) (string, error) {
	if cfg == nil || schema == nil {
		return "", fmt.Errorf("generation requires a schema and a config")
	}
	p := progress{quiet: opts.Quiet}

	knownProvider := IsProvider
	if opts.Values != nil {
		knownProvider = nil
	}
	if errs := validateConfig(schema, cfg, knownProvider); len(errs) > 0 {
		return "", &ValidationError{Errors: errs}
	}

	order, cycles := sortTables(schema.Tables, schema.Relationships)
	if len(cycles) > 0 {
		p.warn("⚠️  Circular foreign keys between: %s", strings.Join(cycles, ", "))
	}
	p.info("📋 Generation order: %s", strings.Join(tableNames(order), " → "))

	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}

	rows, err := newGenerator(schema, cfg, seed, opts).run(ctx, order)
	if err != nil {
		return "", err
	}

	if outputName == "" {
		outputName = "data_" + uuid.NewString()
	}
	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	path := export.OutputPath(dir, outputName, cfg.Format)

	switch cfg.Format {
	case types.FormatCSV:
		err = export.WriteCSVArchive(path, rows)
	default:
		dialect := opts.Dialect
		if dialect == "" {
			dialect = export.DialectMySQL
		}
		err = export.WriteSQL(path, rows, dialect)
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	p.success("✅ Wrote %s", path)
	return path, nil
}

func tableNames(tables []types.Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}
