package loader

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/treegrid/pkg/model"
)

// Schema is the table layout read from SQLite sources. The fields column
// holds a JSON object; an isExpanded key in it seeds the row's expansion.
const Schema = `
CREATE TABLE IF NOT EXISTS rows (
	id        INTEGER PRIMARY KEY,
	parent_id INTEGER NULL,
	position  INTEGER NOT NULL DEFAULT 0,
	fields    TEXT NOT NULL DEFAULT '{}'
);
`

func loadSQLite(ctx context.Context, path string) ([]*model.Row, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &LoadError{Path: path, Cause: fmt.Errorf("opening database: %w", err)}
	}
	defer db.Close()

	rows, err := queryRows(ctx, db)
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}
	tree, err := BuildTree(rows)
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}
	return tree, nil
}

func queryRows(ctx context.Context, db *sql.DB) ([]*model.Row, error) {
	res, err := db.QueryContext(ctx, `SELECT id, parent_id, fields FROM rows ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer res.Close()

	var out []*model.Row
	for res.Next() {
		var (
			id       int
			parentID sql.NullInt64
			fields   sql.NullString
		)
		if err := res.Scan(&id, &parentID, &fields); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := &model.Row{ID: id}
		if parentID.Valid {
			row.ParentID = model.IntPtr(int(parentID.Int64))
		}
		if fields.Valid && fields.String != "" {
			if err := json.Unmarshal([]byte(fields.String), &row.Fields); err != nil {
				return nil, fmt.Errorf("row %d fields: %w", id, err)
			}
			if v, ok := row.Fields[model.KeyIsExpanded].(bool); ok {
				row.Expanded = v
				delete(row.Fields, model.KeyIsExpanded)
			}
		}
		out = append(out, row)
	}
	return out, res.Err()
}

// SaveSQLite writes roots to a SQLite file in the layout LoadRowsFromFile
// reads, replacing any rows already stored there.
func SaveSQLite(ctx context.Context, path string, roots []*model.Row) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rows`); err != nil {
		return fmt.Errorf("clearing rows: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rows (id, parent_id, position, fields) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range Flatten(roots) {
		fields := make(model.Fields, len(row.Fields)+1)
		for k, v := range row.Fields {
			fields[k] = v
		}
		if row.Expanded {
			fields[model.KeyIsExpanded] = true
		}
		data, err := json.MarshalNoEscape(fields)
		if err != nil {
			return fmt.Errorf("row %d fields: %w", row.ID, err)
		}
		var parent any
		if row.ParentID != nil {
			parent = *row.ParentID
		}
		if _, err := stmt.ExecContext(ctx, row.ID, parent, i, string(data)); err != nil {
			return fmt.Errorf("inserting row %d: %w", row.ID, err)
		}
	}
	return tx.Commit()
}
