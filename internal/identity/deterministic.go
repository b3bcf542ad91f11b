package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

const keyPrefix = "go-blockeditor:"

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Keys are prefixed by entity kind so content types and cultures never collide.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// ContentTypeUUID is the id of the content or element type with the given alias.
func ContentTypeUUID(alias string) uuid.UUID {
	return UUID(keyPrefix + "content_type:" + strings.ToLower(strings.TrimSpace(alias)))
}

// CultureUUID is the id of the culture row for code.
func CultureUUID(code string) uuid.UUID {
	return UUID(keyPrefix + "culture:" + strings.ToLower(strings.TrimSpace(code)))
}

// DocumentUUID derives a document id from its content type and slug. Used by
// seeders and the CLI when no explicit id is given.
func DocumentUUID(contentTypeID uuid.UUID, slug string) uuid.UUID {
	return UUID(keyPrefix + "document:" + contentTypeID.String() + ":" + strings.ToLower(strings.TrimSpace(slug)))
}
