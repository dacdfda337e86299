package selection

import (
	"fmt"
	"net/url"
	"strings"
)

// Query parameter names for selection sharing.
const (
	ParamPoiIDs       = "poi_ids"
	ParamItemIDs      = "item_ids"
	ParamSchematicIDs = "schematic_ids"
)

// EncodeParams serializes the selection to a query string. Each non-empty set
// becomes a comma-joined parameter; empty sets are omitted. IDs are sorted so
// the encoding is deterministic. An ID containing a comma would corrupt the
// round trip, so it is rejected.
func EncodeParams(state State) (string, error) {
	params := url.Values{}

	for _, group := range []struct {
		key string
		ids []string
	}{
		{ParamPoiIDs, state.PoiIDs},
		{ParamItemIDs, state.ItemIDs},
		{ParamSchematicIDs, state.SchematicIDs},
	} {
		if len(group.ids) == 0 {
			continue
		}
		for _, id := range group.ids {
			if strings.Contains(id, ",") {
				return "", fmt.Errorf("id %q contains a comma and cannot be encoded in %s", id, group.key)
			}
		}
		params.Set(group.key, strings.Join(group.ids, ","))
	}

	return params.Encode(), nil
}

// DecodeParams parses a query string (with or without a leading "?") back
// into the three ID lists. Missing parameters yield empty lists; empty
// segments from stray commas are dropped.
func DecodeParams(query string) (poiIDs, itemIDs, schematicIDs []string, err error) {
	query = strings.TrimPrefix(query, "?")
	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse selection params: %w", err)
	}

	return splitIDs(params.Get(ParamPoiIDs)),
		splitIDs(params.Get(ParamItemIDs)),
		splitIDs(params.Get(ParamSchematicIDs)),
		nil
}

func splitIDs(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
