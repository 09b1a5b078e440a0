// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"

	"github.com/Dst88/kaspi-parser/internal/catalog"
	"github.com/Dst88/kaspi-parser/internal/output"
	"github.com/Dst88/kaspi-parser/internal/utils"
)

// ColumnTransform rewrites the values of one column.
type ColumnTransform struct {
	Column string        `yaml:"column" json:"column"`
	Rules  TransformList `yaml:"rules" json:"rules"`
	// Default fills records that lack the column entirely.
	Default string `yaml:"default,omitempty" json:"default,omitempty"`
}

// Config configures the record pipeline.
type Config struct {
	// Global rules run on every value before the column rules.
	Global  TransformList     `yaml:"global,omitempty" json:"global,omitempty"`
	Columns []ColumnTransform `yaml:"columns,omitempty" json:"columns,omitempty"`
	// DedupBy drops later records whose value in this column was already seen.
	DedupBy string `yaml:"dedup_by,omitempty" json:"dedup_by,omitempty"`
}

// Empty reports whether the pipeline would leave records untouched.
func (c Config) Empty() bool {
	return len(c.Global) == 0 && len(c.Columns) == 0 && c.DedupBy == ""
}

// Validate checks every rule.
func (c Config) Validate() error {
	if err := ValidateTransformRules(c.Global); err != nil {
		return fmt.Errorf("global: %w", err)
	}
	for _, col := range c.Columns {
		if col.Column == "" {
			return fmt.Errorf("column transform without a column name")
		}
		if err := ValidateTransformRules(col.Rules); err != nil {
			return fmt.Errorf("column %q: %w", col.Column, err)
		}
	}
	return nil
}

// Stats summarizes one Process call.
type Stats struct {
	In      int
	Out     int
	Dropped int
	Failed  int
}

// Pipeline rewrites collected records before they are exported.
type Pipeline struct {
	global  TransformList
	columns []ColumnTransform
	dedupBy string
	logger  utils.Logger
}

// New compiles cfg into a pipeline.
func New(cfg Config, logger utils.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	global, err := cfg.Global.compile()
	if err != nil {
		return nil, fmt.Errorf("global: %w", err)
	}
	columns := make([]ColumnTransform, len(cfg.Columns))
	for i, col := range cfg.Columns {
		if col.Column == "" {
			return nil, fmt.Errorf("column transform %d has no column name", i)
		}
		rules, err := col.Rules.compile()
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Column, err)
		}
		col.Rules = rules
		columns[i] = col
	}
	return &Pipeline{global: global, columns: columns, dedupBy: cfg.DedupBy, logger: logger}, nil
}

// Process returns transformed copies of records in their original order.
// A value whose rules fail is kept unchanged and logged; the inputs are
// never modified.
func (p *Pipeline) Process(ctx context.Context, records []output.Record) ([]output.Record, Stats, error) {
	stats := Stats{In: len(records)}
	seen := make(map[string]bool)
	out := make([]output.Record, 0, len(records))

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		row := &catalog.ProductRecord{}
		for _, key := range rec.Keys() {
			value, _ := rec.Get(key)
			row.Set(key, p.apply(i, key, p.global, value, &stats))
		}
		for _, col := range p.columns {
			value, ok := row.Get(col.Column)
			if !ok {
				if col.Default != "" {
					row.Set(col.Column, col.Default)
				}
				continue
			}
			row.Set(col.Column, p.apply(i, col.Column, col.Rules, value, &stats))
		}

		if p.dedupBy != "" {
			if key, ok := row.Get(p.dedupBy); ok && key != "" {
				if seen[key] {
					stats.Dropped++
					continue
				}
				seen[key] = true
			}
		}
		out = append(out, row)
	}

	stats.Out = len(out)
	return out, stats, nil
}

func (p *Pipeline) apply(index int, column string, rules TransformList, value string, stats *Stats) string {
	if len(rules) == 0 {
		return value
	}
	result, err := rules.Apply(value)
	if err != nil {
		stats.Failed++
		p.logger.WithFields(map[string]interface{}{
			"record": index,
			"column": column,
		}).Warnf("transform failed, keeping original value: %v", err)
		return value
	}
	return result
}
