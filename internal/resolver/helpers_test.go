package resolver_test

import "github.com/goliatone/go-blockeditor/internal/contenttypes"

func metaTypes(types ...*contenttypes.ContentType) []*contenttypes.ContentType {
	return types
}
