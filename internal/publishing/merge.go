package publishing

import (
	"github.com/google/uuid"

	"github.com/goliatone/go-blockeditor/internal/blockvalue"
)

// mergeExpose takes published and invariant entries from edited and the
// entries of unpublished cultures from previous.
func mergeExpose(edited, previous *blockvalue.BlockValue, scope publishScope) []blockvalue.BlockItemVariation {
	out := []blockvalue.BlockItemVariation{}
	for _, entry := range edited.Expose {
		if entry.Culture == nil || scope.publishes(entry.Culture) {
			out = append(out, entry)
		}
	}
	if scope.all {
		return blockvalue.CloneExpose(out)
	}
	for _, entry := range previous.Expose {
		if entry.Culture != nil && !scope.publishes(entry.Culture) {
			out = append(out, entry)
		}
	}
	return blockvalue.CloneExpose(out)
}

// previousItems indexes every layout item of previous by content key.
func previousItems(previous *blockvalue.BlockValue) map[uuid.UUID]blockvalue.LayoutItem {
	out := map[uuid.UUID]blockvalue.LayoutItem{}
	previous.WalkLayout(func(item *blockvalue.LayoutItem, _ int) bool {
		if _, ok := out[item.ContentKey]; !ok {
			out[item.ContentKey] = *item
		}
		return true
	})
	return out
}

// mergeLayout keeps the edited order and re-inserts retained previous items
// right after the nearest previous sibling that is still present. Grid areas
// are merged the same way.
func mergeLayout(edited, previous []blockvalue.LayoutItem, lookup map[uuid.UUID]blockvalue.LayoutItem, retain func(uuid.UUID) bool) []blockvalue.LayoutItem {
	out := make([]blockvalue.LayoutItem, 0, len(edited))
	for _, item := range edited {
		merged := item.Clone()
		if prev, ok := lookup[item.ContentKey]; ok && len(prev.Areas) > 0 {
			merged.Areas = mergeAreas(item.Areas, prev.Areas, lookup, retain)
		}
		out = append(out, merged)
	}

	anchor := -1
	for _, prev := range previous {
		if pos := indexOf(out, prev.ContentKey); pos >= 0 {
			anchor = pos
			continue
		}
		if !retain(prev.ContentKey) {
			continue
		}
		kept := prev.Clone()
		if len(prev.Areas) > 0 {
			kept.Areas = mergeAreas(nil, prev.Areas, lookup, retain)
		}
		anchor++
		out = append(out, blockvalue.LayoutItem{})
		copy(out[anchor+1:], out[anchor:])
		out[anchor] = kept
	}
	return out
}

func mergeAreas(edited, previous []blockvalue.LayoutArea, lookup map[uuid.UUID]blockvalue.LayoutItem, retain func(uuid.UUID) bool) []blockvalue.LayoutArea {
	out := make([]blockvalue.LayoutArea, 0, len(edited))
	for _, area := range edited {
		var prevItems []blockvalue.LayoutItem
		for _, candidate := range previous {
			if candidate.Key == area.Key {
				prevItems = candidate.Items
				break
			}
		}
		out = append(out, blockvalue.LayoutArea{
			Key:   area.Key,
			Items: mergeLayout(area.Items, prevItems, lookup, retain),
		})
	}
	if edited != nil {
		return out
	}
	for _, area := range previous {
		out = append(out, blockvalue.LayoutArea{
			Key:   area.Key,
			Items: mergeLayout(nil, area.Items, lookup, retain),
		})
	}
	return out
}

func indexOf(items []blockvalue.LayoutItem, key uuid.UUID) int {
	for i := range items {
		if items[i].ContentKey == key {
			return i
		}
	}
	return -1
}
