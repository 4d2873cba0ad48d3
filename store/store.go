// Package store persists layouts read from CIF streams in a SQLite database.
//
// Every saved layout is one row in the reads table, keyed by a read id;
// cells, layers, shapes and instances refer to it. Shape geometry is kept
// as a JSON document per row.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mrohne/klayout/layout"
)

// Store is a handle on a SQLite layout database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Read describes one saved layout.
type Read struct {
	ID        string
	Source    string
	DBU       float64
	CreatedAt time.Time
}

// Save writes ly as a new read in one transaction and returns its id. An
// empty id is replaced by a fresh UUID.
func (s *Store) Save(ctx context.Context, ly *layout.Layout, id, source string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reads (id, source, dbu, created_at) VALUES (?, ?, ?, ?)`,
		id, source, ly.DBU(), time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return "", fmt.Errorf("insert read: %w", err)
	}

	if err := saveLayers(ctx, tx, id, ly); err != nil {
		return "", err
	}
	if err := saveCells(ctx, tx, id, ly); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func saveLayers(ctx context.Context, tx *sql.Tx, id string, ly *layout.Layout) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO layers (read_id, layer_index, layer, datatype, name) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare layers: %w", err)
	}
	defer stmt.Close()

	for _, l := range ly.Layers() {
		var layer, datatype sql.NullInt64
		if l.Props.Numbered {
			layer = sql.NullInt64{Int64: int64(l.Props.Layer), Valid: true}
			datatype = sql.NullInt64{Int64: int64(l.Props.Datatype), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, id, l.Index, layer, datatype, l.Props.Name); err != nil {
			return fmt.Errorf("insert layer %d: %w", l.Index, err)
		}
	}
	return nil
}

func saveCells(ctx context.Context, tx *sql.Tx, id string, ly *layout.Layout) error {
	cellStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cells (read_id, cell_index, name, top) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cells: %w", err)
	}
	defer cellStmt.Close()

	shapeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO shapes (read_id, cell_index, layer_index, kind, data) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare shapes: %w", err)
	}
	defer shapeStmt.Close()

	instStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO instances (read_id, cell_index, child_index,
			m_a, m_b, m_c, m_d, m_e, m_f, na, nb, ax, ay, bx, by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare instances: %w", err)
	}
	defer instStmt.Close()

	top := make(map[layout.CellIndex]bool)
	for _, c := range ly.TopCells() {
		top[c.Index()] = true
	}

	for _, c := range ly.Cells() {
		if _, err := cellStmt.ExecContext(ctx, id, c.Index(), c.Name(), top[c.Index()]); err != nil {
			return fmt.Errorf("insert cell %s: %w", c.Name(), err)
		}

		for _, l := range c.ShapeLayers() {
			for _, sh := range c.Shapes(l) {
				kind, data, err := encodeShape(sh)
				if err != nil {
					return fmt.Errorf("cell %s: %w", c.Name(), err)
				}
				if _, err := shapeStmt.ExecContext(ctx, id, c.Index(), l, kind, data); err != nil {
					return fmt.Errorf("insert shape in %s: %w", c.Name(), err)
				}
			}
		}

		for _, inst := range c.Instances() {
			m := inst.Trans
			na, nb := 1, 1
			if inst.Array {
				na, nb = max(1, inst.NA), max(1, inst.NB)
			}
			if _, err := instStmt.ExecContext(ctx, id, c.Index(), inst.Cell,
				m.A, m.B, m.C, m.D, m.E, m.F,
				na, nb, inst.A.X, inst.A.Y, inst.B.X, inst.B.Y,
			); err != nil {
				return fmt.Errorf("insert instance in %s: %w", c.Name(), err)
			}
		}
	}
	return nil
}

// Reads lists the saved reads, oldest first.
func (s *Store) Reads(ctx context.Context) ([]Read, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, dbu, created_at FROM reads ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query reads: %w", err)
	}
	defer rows.Close()

	var out []Read
	for rows.Next() {
		var r Read
		var created string
		if err := rows.Scan(&r.ID, &r.Source, &r.DBU, &created); err != nil {
			return nil, fmt.Errorf("scan read: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("read %s: bad timestamp %q: %w", r.ID, created, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CellSummary is one cell of a saved read with its content counts.
type CellSummary struct {
	Index     layout.CellIndex
	Name      string
	Top       bool
	Shapes    int
	Instances int
}

// Cells lists the cells of a read in index order.
func (s *Store) Cells(ctx context.Context, readID string) ([]CellSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.cell_index, c.name, c.top,
			(SELECT COUNT(*) FROM shapes s WHERE s.read_id = c.read_id AND s.cell_index = c.cell_index),
			(SELECT COUNT(*) FROM instances i WHERE i.read_id = c.read_id AND i.cell_index = c.cell_index)
		FROM cells c WHERE c.read_id = ? ORDER BY c.cell_index`, readID)
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	defer rows.Close()

	var out []CellSummary
	for rows.Next() {
		var c CellSummary
		if err := rows.Scan(&c.Index, &c.Name, &c.Top, &c.Shapes, &c.Instances); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Layers lists the layers of a read in index order.
func (s *Store) Layers(ctx context.Context, readID string) ([]layout.LayerInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT layer_index, layer, datatype, name FROM layers WHERE read_id = ? ORDER BY layer_index`, readID)
	if err != nil {
		return nil, fmt.Errorf("query layers: %w", err)
	}
	defer rows.Close()

	var out []layout.LayerInfo
	for rows.Next() {
		var l layout.LayerInfo
		var layer, datatype sql.NullInt64
		if err := rows.Scan(&l.Index, &layer, &datatype, &l.Props.Name); err != nil {
			return nil, fmt.Errorf("scan layer: %w", err)
		}
		if layer.Valid {
			l.Props.Numbered = true
			l.Props.Layer = int(layer.Int64)
			l.Props.Datatype = int(datatype.Int64)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Shapes returns the shapes of one cell of a read, grouped by layer index.
func (s *Store) Shapes(ctx context.Context, readID string, cell layout.CellIndex) (map[uint][]layout.Shape, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT layer_index, kind, data FROM shapes WHERE read_id = ? AND cell_index = ? ORDER BY id`,
		readID, cell)
	if err != nil {
		return nil, fmt.Errorf("query shapes: %w", err)
	}
	defer rows.Close()

	out := make(map[uint][]layout.Shape)
	for rows.Next() {
		var l uint
		var kind, data string
		if err := rows.Scan(&l, &kind, &data); err != nil {
			return nil, fmt.Errorf("scan shape: %w", err)
		}
		sh, err := decodeShape(kind, data)
		if err != nil {
			return nil, err
		}
		out[l] = append(out[l], sh)
	}
	return out, rows.Err()
}

type shapeDoc struct {
	Box      *[4]int64  `json:"box,omitempty"`
	Points   [][2]int64 `json:"points,omitempty"`
	Width    int64      `json:"width,omitempty"`
	BeginExt int64      `json:"begin_ext,omitempty"`
	EndExt   int64      `json:"end_ext,omitempty"`
	Round    bool       `json:"round,omitempty"`
	Text     string     `json:"text,omitempty"`
	Size     int64      `json:"size,omitempty"`
}

func toPairs(pts []layout.Point) [][2]int64 {
	out := make([][2]int64, len(pts))
	for i, p := range pts {
		out[i] = [2]int64{p.X, p.Y}
	}
	return out
}

func fromPairs(pairs [][2]int64) []layout.Point {
	out := make([]layout.Point, len(pairs))
	for i, p := range pairs {
		out[i] = layout.Pt(p[0], p[1])
	}
	return out
}

func encodeShape(sh layout.Shape) (string, string, error) {
	var kind string
	var doc shapeDoc
	switch v := sh.(type) {
	case layout.Box:
		kind = "box"
		doc.Box = &[4]int64{v.Left, v.Bottom, v.Right, v.Top}
	case layout.Polygon:
		kind = "polygon"
		doc.Points = toPairs(v.Hull)
	case layout.Path:
		kind = "path"
		doc.Points = toPairs(v.Points)
		doc.Width, doc.BeginExt, doc.EndExt, doc.Round = v.Width, v.BeginExt, v.EndExt, v.Round
	case layout.Text:
		kind = "text"
		doc.Points = [][2]int64{{v.Pos.X, v.Pos.Y}}
		doc.Text, doc.Size = v.String, v.Size
	default:
		return "", "", fmt.Errorf("unsupported shape %T", sh)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", "", fmt.Errorf("encode %s: %w", kind, err)
	}
	return kind, string(data), nil
}

func decodeShape(kind, data string) (layout.Shape, error) {
	var doc shapeDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}

	switch kind {
	case "box":
		if doc.Box == nil {
			return nil, fmt.Errorf("decode box: missing coordinates")
		}
		b := doc.Box
		return layout.NewBox(b[0], b[1], b[2], b[3]), nil
	case "polygon":
		return layout.Polygon{Hull: fromPairs(doc.Points)}, nil
	case "path":
		return layout.Path{
			Points:   fromPairs(doc.Points),
			Width:    doc.Width,
			BeginExt: doc.BeginExt,
			EndExt:   doc.EndExt,
			Round:    doc.Round,
		}, nil
	case "text":
		if len(doc.Points) != 1 {
			return nil, fmt.Errorf("decode text: want one anchor, got %d", len(doc.Points))
		}
		return layout.Text{String: doc.Text, Pos: fromPairs(doc.Points)[0], Size: doc.Size}, nil
	default:
		return nil, fmt.Errorf("unknown shape kind %q", kind)
	}
}
