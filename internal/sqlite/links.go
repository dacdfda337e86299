// Bulk link operations over the poi_entity_links table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sietch-tools/poilink/pkg/types"
)

// CreateLinks persists a batch of links in a single transaction and returns
// the generated link IDs in input order. On any failure the transaction is
// rolled back and no links from the batch are persisted.
func (b *Backend) CreateLinks(ctx context.Context, links []*types.PoiEntityLink) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return []string{}, nil
	}

	for _, link := range links {
		if err := link.Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	ids := make([]string, 0, len(links))

	for _, link := range links {
		id := generateUUID()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO poi_entity_links
            (link_id, poi_id, item_id, schematic_id, link_type, quantity, notes, created_by, created_at, updated_at, updated_by)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, link.PoiID, nullable(link.ItemID), nullable(link.SchematicID),
			link.LinkType, link.Quantity, link.Notes, link.CreatedBy, now, now, nullable(link.UpdatedBy),
		)
		if err != nil {
			return nil, fmt.Errorf("inserting link for poi %s: %w", link.PoiID, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing link batch: %w", err)
	}
	return ids, nil
}

// DeleteLinks removes links by ID in a single transaction, reporting which
// IDs were deleted and which were not found. A non-nil error means nothing
// was deleted.
func (b *Backend) DeleteLinks(ctx context.Context, ids []string) (deleted, missing []string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkAttached(); err != nil {
		return nil, nil, err
	}
	if len(ids) == 0 {
		return []string{}, []string{}, nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		res, err := tx.ExecContext(ctx, "DELETE FROM poi_entity_links WHERE link_id = ?", id)
		if err != nil {
			return nil, nil, fmt.Errorf("deleting link %s: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, nil, fmt.Errorf("deleting link %s: %w", id, err)
		}
		if affected > 0 {
			deleted = append(deleted, id)
		} else {
			missing = append(missing, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("committing link deletion: %w", err)
	}
	return deleted, missing, nil
}

// ExistingLinks returns the persisted links whose POI is in poiIDs and whose
// entity is in entityIDs. Used by the bulk creator for duplicate exclusion.
func (b *Backend) ExistingLinks(ctx context.Context, poiIDs, entityIDs []string) ([]types.ExistingLink, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	if len(poiIDs) == 0 || len(entityIDs) == 0 {
		return []types.ExistingLink{}, nil
	}

	query := fmt.Sprintf(
		`SELECT link_id, poi_id, item_id, schematic_id FROM poi_entity_links
        WHERE poi_id IN (%s) AND (item_id IN (%s) OR schematic_id IN (%s))`,
		placeholders(len(poiIDs)), placeholders(len(entityIDs)), placeholders(len(entityIDs)),
	)

	args := make([]any, 0, len(poiIDs)+2*len(entityIDs))
	for _, id := range poiIDs {
		args = append(args, id)
	}
	for _, id := range entityIDs {
		args = append(args, id)
	}
	for _, id := range entityIDs {
		args = append(args, id)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying existing links: %w", err)
	}
	defer rows.Close()

	results := []types.ExistingLink{}
	for rows.Next() {
		var existing types.ExistingLink
		var itemID, schematicID sql.NullString
		if err := rows.Scan(&existing.LinkID, &existing.PoiID, &itemID, &schematicID); err != nil {
			return nil, fmt.Errorf("scanning existing link: %w", err)
		}
		if itemID.Valid {
			existing.EntityID = itemID.String
			existing.EntityKind = types.EntityKindItem
		} else {
			existing.EntityID = schematicID.String
			existing.EntityKind = types.EntityKindSchematic
		}
		results = append(results, existing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating existing links: %w", err)
	}
	return results, nil
}

// FetchLinks queries links matching the filter, ordered by created_at DESC.
// Supported filter keys: poi_id, item_id, schematic_id, link_type,
// created_by (string), limit, offset (int).
func (b *Backend) FetchLinks(ctx context.Context, filter types.Filter) ([]*types.PoiEntityLink, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.checkAttached(); err != nil {
		return nil, err
	}

	query := `SELECT link_id, poi_id, item_id, schematic_id, link_type, quantity, notes, created_by, created_at, updated_at, updated_by
    FROM poi_entity_links`
	var conditions []string
	var args []any

	for _, key := range []string{"poi_id", "item_id", "schematic_id", "link_type", "created_by"} {
		v, ok := filter[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		conditions = append(conditions, key+" = ?")
		args = append(args, s)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, link_id DESC"

	if v, ok := filter["limit"]; ok {
		limit, ok := v.(int)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		if limit > 0 {
			query += fmt.Sprintf(" LIMIT %d", limit)
		}
	}
	if v, ok := filter["offset"]; ok {
		offset, ok := v.(int)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", offset)
		}
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching links: %w", err)
	}
	defer rows.Close()

	results := []*types.PoiEntityLink{}
	for rows.Next() {
		link, err := hydrateLink(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating link: %w", err)
		}
		results = append(results, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}
	return results, nil
}

// hydrateLink converts one row into a *types.PoiEntityLink.
func hydrateLink(rows *sql.Rows) (*types.PoiEntityLink, error) {
	var l types.PoiEntityLink
	var itemID, schematicID, notes, updatedBy sql.NullString
	var createdAt, updatedAt string

	if err := rows.Scan(&l.LinkID, &l.PoiID, &itemID, &schematicID, &l.LinkType,
		&l.Quantity, &notes, &l.CreatedBy, &createdAt, &updatedAt, &updatedBy); err != nil {
		return nil, err
	}

	l.ItemID = itemID.String
	l.SchematicID = schematicID.String
	l.Notes = notes.String
	l.UpdatedBy = updatedBy.String

	var err error
	l.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	l.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &l, nil
}

// placeholders returns n comma-joined SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// nullable maps an empty string to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
