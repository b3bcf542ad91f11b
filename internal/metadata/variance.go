package metadata

import (
	"github.com/goliatone/go-blockeditor/internal/blockvalue"
	"github.com/goliatone/go-blockeditor/internal/contenttypes"
	"github.com/goliatone/go-blockeditor/internal/variance"
)

// ElementVariation returns the effective variance of the element type of
// item inside vctx. ok is false when the element type is unknown.
func (m *Metadata) ElementVariation(item *blockvalue.BlockItemData, vctx variance.Context) (variance.Variation, bool) {
	if item == nil {
		return variance.Nothing, false
	}
	elementType, ok := m.ElementType(item.ContentTypeKey)
	if !ok {
		return variance.Nothing, false
	}
	return vctx.ElementVariation(elementType.Variation), true
}

// PropertyVariation returns the effective variance of alias on item inside
// vctx together with its property type.
func (m *Metadata) PropertyVariation(item *blockvalue.BlockItemData, alias string, vctx variance.Context) (variance.Variation, *contenttypes.PropertyType, bool) {
	if item == nil {
		return variance.Nothing, nil, false
	}
	elementType, ok := m.ElementType(item.ContentTypeKey)
	if !ok {
		return variance.Nothing, nil, false
	}
	propertyType, ok := elementType.Property(alias)
	if !ok {
		return variance.Nothing, nil, false
	}
	return vctx.Effective(elementType.Variation, propertyType.Variation), propertyType, true
}
