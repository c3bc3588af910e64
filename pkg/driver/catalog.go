package driver

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapadmin/pkg/core"
)

// QueryForeignKeys runs a catalog query returning one row per key column with the columns
// (constraint, source table, source column, target schema, target table, target column,
// on delete, on update), ordered so columns of one constraint are adjacent.
// Target schema is stored in ForeignKey.Schema.
func (b *BaseSQLDriver) QueryForeignKeys(ctx context.Context, query string, args ...any) ([]core.BackwardKey, error) {
	if b.DB == nil {
		return nil, errNotConnected
	}
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.BackwardKey
	for rows.Next() {
		var name, source, column, schema, target, targetCol, onDelete, onUpdate string
		if err := rows.Scan(&name, &source, &column, &schema, &target, &targetCol, &onDelete, &onUpdate); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		if n := len(out); n > 0 && out[n-1].Table == source && out[n-1].Key.Name == name {
			out[n-1].Key.Source = append(out[n-1].Key.Source, column)
			out[n-1].Key.Target = append(out[n-1].Key.Target, targetCol)
			continue
		}
		out = append(out, core.BackwardKey{
			Table: source,
			Key: core.ForeignKey{
				Name:     name,
				Source:   []string{column},
				Schema:   schema,
				Table:    target,
				Target:   []string{targetCol},
				OnDelete: onDelete,
				OnUpdate: onUpdate,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}
	return out, nil
}

// Keys strips the referencing table from backward keys.
func Keys(keys []core.BackwardKey) []core.ForeignKey {
	out := make([]core.ForeignKey, len(keys))
	for i, k := range keys {
		out[i] = k.Key
	}
	return out
}
