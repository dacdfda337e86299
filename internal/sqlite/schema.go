// Package sqlite implements the SQLite storage backend for poilink.
package sqlite

// Schema DDL. The database file is persistent, so every statement is
// idempotent (IF NOT EXISTS).
const createPoiEntityLinks = `CREATE TABLE IF NOT EXISTS poi_entity_links (
    link_id TEXT PRIMARY KEY,
    poi_id TEXT NOT NULL,
    item_id TEXT,
    schematic_id TEXT,
    link_type TEXT NOT NULL,
    quantity INTEGER NOT NULL DEFAULT 1,
    notes TEXT,
    created_by TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    updated_by TEXT,
    CHECK ((item_id IS NULL) != (schematic_id IS NULL)),
    CHECK (quantity >= 1)
);`

// Partial unique indexes enforce one link per (POI, entity) pair on each
// entity side.
const (
	idxLinksPoiItem = `CREATE UNIQUE INDEX IF NOT EXISTS idx_links_poi_item
    ON poi_entity_links(poi_id, item_id) WHERE item_id IS NOT NULL;`

	idxLinksPoiSchematic = `CREATE UNIQUE INDEX IF NOT EXISTS idx_links_poi_schematic
    ON poi_entity_links(poi_id, schematic_id) WHERE schematic_id IS NOT NULL;`

	idxLinksPoi = `CREATE INDEX IF NOT EXISTS idx_links_poi
    ON poi_entity_links(poi_id);`

	idxLinksCreatedAt = `CREATE INDEX IF NOT EXISTS idx_links_created_at
    ON poi_entity_links(created_at);`
)

// schemaDDL lists all DDL statements in execution order.
var schemaDDL = []string{
	createPoiEntityLinks,
	idxLinksPoiItem,
	idxLinksPoiSchematic,
	idxLinksPoi,
	idxLinksCreatedAt,
}
