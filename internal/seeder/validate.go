package seeder

import (
	"fmt"
	"sort"

	"github.com/Rana718/ddlseed/internal/types"
)

// ValidateConfig checks a generation config against a schema before any row
// is generated. Every problem is reported; an empty result means the config
// is acceptable. Providers are checked against the built-in catalog.
func ValidateConfig(schema *types.Schema, cfg *types.GenerationConfig) FieldErrors {
	return validateConfig(schema, cfg, IsProvider)
}

func validateConfig(schema *types.Schema, cfg *types.GenerationConfig, knownProvider func(string) bool) FieldErrors {
	var errs FieldErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch cfg.Format {
	case types.FormatSQL, types.FormatCSV:
	default:
		add("format", "The format must be one of: sql, csv.")
	}

	if len(cfg.Tables) == 0 {
		add("tables", "At least one table must be configured.")
	}

	for _, name := range cfg.ConfiguredTables() {
		table := schema.Table(name)
		if table == nil {
			add("tables."+name, "Table %s does not exist in the schema.", name)
			continue
		}
		columns := make([]string, 0, len(cfg.Tables[name].Columns))
		for col := range cfg.Tables[name].Columns {
			columns = append(columns, col)
		}
		sort.Strings(columns)

		for _, col := range columns {
			field := "tables." + name + ".columns." + col
			if table.Column(col) == nil {
				add(field, "Column %s does not exist in table %s.", col, name)
				continue
			}
			provider := cfg.Tables[name].Columns[col].Provider
			if provider != "" && knownProvider != nil && !knownProvider(provider) {
				add(field+".provider", "The provider '%s' is invalid.", provider)
			}
		}
	}

	errs = append(errs, validateParentRows(schema, cfg)...)
	errs = append(errs, validateUniqueCapacity(schema, cfg)...)
	return errs
}

// validateParentRows rejects required foreign keys whose parent table will
// have no rows to reference.
func validateParentRows(schema *types.Schema, cfg *types.GenerationConfig) FieldErrors {
	var errs FieldErrors
	for _, rel := range schema.Relationships {
		childRows, childOK := cfg.RowCount(rel.FromTable)
		parentRows, parentOK := cfg.RowCount(rel.ToTable)
		if !childOK || !parentOK {
			continue
		}
		child := schema.Table(rel.FromTable)
		if child == nil {
			continue
		}
		col := child.Column(rel.FromColumn)
		if col == nil || col.Nullable {
			continue
		}

		field := "tables." + rel.FromTable + ".rowCount"
		switch {
		case parentRows == 0:
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("Table %s requires parent rows in %s for %s.", rel.FromTable, rel.ToTable, rel.FromColumn),
			})
		case rel.FromTable == rel.ToTable && childRows > 0:
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("Table %s references itself through required column %s, so its first row has no parent.", rel.FromTable, rel.FromColumn),
			})
		}
	}
	return errs
}

// validateUniqueCapacity rejects tables that need more distinct foreign key
// values in a single-column unique key than the parent will offer.
func validateUniqueCapacity(schema *types.Schema, cfg *types.GenerationConfig) FieldErrors {
	var errs FieldErrors
	for _, table := range schema.Tables {
		rows, ok := cfg.RowCount(table.Name)
		if !ok {
			continue
		}
		for _, con := range table.UniqueConstraints() {
			if len(con.Columns) != 1 {
				continue
			}
			colName := con.Columns[0]
			col := table.Column(colName)
			if col == nil || !col.IsForeignKey {
				continue
			}
			rel, ok := schema.RelationshipFor(table.Name, colName)
			if !ok {
				continue
			}
			parentRows, ok := cfg.RowCount(rel.ToTable)
			if !ok {
				continue
			}
			if parentRows > 0 && rows > parentRows {
				errs = append(errs, FieldError{
					Field: "tables." + table.Name + ".rowCount",
					Message: fmt.Sprintf("Table %s exceeds unique FK capacity for %s (parent %s has %d rows).",
						table.Name, colName, rel.ToTable, parentRows),
				})
			}
		}
	}
	return errs
}
