package store

const schema = `
CREATE TABLE IF NOT EXISTS reads (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	dbu        REAL NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cells (
	read_id    TEXT NOT NULL REFERENCES reads(id),
	cell_index INTEGER NOT NULL,
	name       TEXT NOT NULL,
	top        INTEGER NOT NULL,
	PRIMARY KEY (read_id, cell_index)
);

CREATE TABLE IF NOT EXISTS layers (
	read_id     TEXT NOT NULL REFERENCES reads(id),
	layer_index INTEGER NOT NULL,
	layer       INTEGER,
	datatype    INTEGER,
	name        TEXT NOT NULL,
	PRIMARY KEY (read_id, layer_index)
);

CREATE TABLE IF NOT EXISTS shapes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	read_id     TEXT NOT NULL REFERENCES reads(id),
	cell_index  INTEGER NOT NULL,
	layer_index INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	data        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS instances (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	read_id     TEXT NOT NULL REFERENCES reads(id),
	cell_index  INTEGER NOT NULL,
	child_index INTEGER NOT NULL,
	m_a REAL NOT NULL, m_b REAL NOT NULL, m_c REAL NOT NULL,
	m_d REAL NOT NULL, m_e REAL NOT NULL, m_f REAL NOT NULL,
	na INTEGER NOT NULL DEFAULT 1,
	nb INTEGER NOT NULL DEFAULT 1,
	ax INTEGER NOT NULL DEFAULT 0, ay INTEGER NOT NULL DEFAULT 0,
	bx INTEGER NOT NULL DEFAULT 0, by INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS shapes_cell ON shapes(read_id, cell_index);
CREATE INDEX IF NOT EXISTS instances_cell ON instances(read_id, cell_index);
`
