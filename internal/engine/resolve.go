package engine

import (
	"context"

	"formquery/internal/domain"
	"formquery/internal/formsql"
)

// resolveIdentifiers rewrites opaque ids in projected cells to display
// labels: cross-reference payloads (arrays of objects keyed by field
// ids) get field labels for keys, and objects carrying users/groups id
// arrays get display names. Both passes are best-effort; ids that fail
// to resolve are left in place.
func (en *Engine) resolveIdentifiers(ctx context.Context, rows [][]any) error {
	fieldIDs := make(map[string]bool)
	userIDs := make(map[string]bool)
	groupIDs := make(map[string]bool)

	for _, row := range rows {
		for _, cell := range row {
			collectIDs(cell, fieldIDs, userIDs, groupIDs)
		}
	}
	if len(fieldIDs) == 0 && len(userIDs) == 0 && len(groupIDs) == 0 {
		return nil
	}

	labels, err := en.fetchFieldLabels(ctx, keys(fieldIDs))
	if err != nil {
		return err
	}
	users, err := en.fetchNames(ctx, "users", keys(userIDs))
	if err != nil {
		return err
	}
	groups, err := en.fetchNames(ctx, "groups", keys(groupIDs))
	if err != nil {
		return err
	}

	for _, row := range rows {
		for i, cell := range row {
			row[i] = rewriteCell(cell, labels, users, groups)
		}
	}
	return nil
}

// collectIDs scans one cell for resolvable identifiers.
func collectIDs(cell any, fieldIDs, userIDs, groupIDs map[string]bool) {
	switch v := cell.(type) {
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok && isCrossRefPayload(obj) {
				for key := range obj {
					fieldIDs[key] = true
				}
			}
		}
	case map[string]any:
		for _, id := range idList(v["users"]) {
			userIDs[id] = true
		}
		for _, id := range idList(v["groups"]) {
			groupIDs[id] = true
		}
	}
}

// rewriteCell applies the fetched mappings to one cell.
func rewriteCell(cell any, labels, users, groups map[string]string) any {
	switch v := cell.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok || !isCrossRefPayload(obj) {
				out[i] = item
				continue
			}
			renamed := make(map[string]any, len(obj))
			for key, val := range obj {
				if label, ok := labels[key]; ok && label != "" {
					renamed[label] = val
				} else {
					renamed[key] = val
				}
			}
			out[i] = renamed
		}
		return out

	case map[string]any:
		if v["users"] == nil && v["groups"] == nil {
			return cell
		}
		renamed := make(map[string]any, len(v))
		for key, val := range v {
			switch key {
			case "users":
				renamed[key] = mapNames(idList(val), users)
			case "groups":
				renamed[key] = mapNames(idList(val), groups)
			default:
				renamed[key] = val
			}
		}
		return renamed

	default:
		return cell
	}
}

// isCrossRefPayload reports whether an object looks like a linked-record
// payload: non-empty and keyed entirely by UUID-shaped field ids.
func isCrossRefPayload(obj map[string]any) bool {
	if len(obj) == 0 {
		return false
	}
	for key := range obj {
		if !formsql.IsFieldID(key) {
			return false
		}
	}
	return true
}

// idList extracts string ids from an array-shaped value.
func idList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// mapNames replaces each id with its display name, keeping unresolved
// ids as-is.
func mapNames(ids []string, names map[string]string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		if name, ok := names[id]; ok && name != "" {
			out[i] = name
		} else {
			out[i] = id
		}
	}
	return out
}

func (en *Engine) fetchFieldLabels(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	defs, err := en.fields.FetchByIDs(ctx, ids)
	if err != nil {
		return nil, domain.ErrPersistence("fetch field labels: %v", err)
	}
	out := make(map[string]string, len(defs))
	for _, d := range defs {
		out[d.ID] = d.Label
	}
	return out, nil
}

func (en *Engine) fetchNames(ctx context.Context, resource string, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	names, err := en.dir.FetchByID(ctx, resource, ids)
	if err != nil {
		return nil, domain.ErrPersistence("fetch %s names: %v", resource, err)
	}
	return names, nil
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
