// Link entities for the POI ↔ item/schematic association graph.
package types

import "time"

// Link type constants. A link records where an entity is found, crafted,
// required, or sourced relative to a point of interest.
const (
	LinkTypeFoundHere      = "found_here"
	LinkTypeCraftedHere    = "crafted_here"
	LinkTypeRequiredFor    = "required_for"
	LinkTypeMaterialSource = "material_source"
)

// validLinkTypes lists the link types Set and Validate accept.
var validLinkTypes = map[string]bool{
	LinkTypeFoundHere:      true,
	LinkTypeCraftedHere:    true,
	LinkTypeRequiredFor:    true,
	LinkTypeMaterialSource: true,
}

// ValidLinkType reports whether t is a recognized link type.
func ValidLinkType(t string) bool {
	return validLinkTypes[t]
}

// Entity kinds for the entity side of a link.
const (
	EntityKindItem      = "item"
	EntityKindSchematic = "schematic"
)

// PoiEntityLink represents one association between a POI and an entity.
// Exactly one of ItemID and SchematicID is non-empty per link.
type PoiEntityLink struct {
	// LinkID is a UUID v7, generated on creation.
	LinkID string

	// PoiID is the point-of-interest side of the association.
	PoiID string

	// ItemID is set when the entity is an item, empty otherwise.
	ItemID string

	// SchematicID is set when the entity is a schematic, empty otherwise.
	SchematicID string

	// LinkType is the relationship type (found_here, crafted_here,
	// required_for, material_source).
	LinkType string

	// Quantity is the number of entities the link refers to (minimum 1).
	Quantity int

	// Notes is free-form text attached to the link.
	Notes string

	// CreatedBy is the actor that created the link.
	CreatedBy string

	CreatedAt time.Time
	UpdatedAt time.Time

	// UpdatedBy is the actor of the most recent modification.
	UpdatedBy string
}

// EntityID returns whichever of ItemID and SchematicID is set.
func (l *PoiEntityLink) EntityID() string {
	if l.ItemID != "" {
		return l.ItemID
	}
	return l.SchematicID
}

// EntityKind returns "item" or "schematic" depending on which side is set.
func (l *PoiEntityLink) EntityKind() string {
	if l.ItemID != "" {
		return EntityKindItem
	}
	return EntityKindSchematic
}

// Validate checks the mutual-exclusivity and field constraints of a link.
func (l *PoiEntityLink) Validate() error {
	if l.PoiID == "" {
		return ErrInvalidID
	}
	if (l.ItemID == "") == (l.SchematicID == "") {
		return ErrEntityExclusive
	}
	if !ValidLinkType(l.LinkType) {
		return ErrInvalidLinkType
	}
	if l.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if l.CreatedBy == "" {
		return ErrMissingActor
	}
	return nil
}

// ExistingLink is the projection of a persisted link used for duplicate
// exclusion. Read-only from the engine's perspective.
type ExistingLink struct {
	LinkID     string
	PoiID      string
	EntityID   string
	EntityKind string
}
