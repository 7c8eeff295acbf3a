package badger

import "strings"

// blobPrefix namespaces blob keys so other data can share the database later.
const blobPrefix = "blob:"

// makeBlobKey generates the database key of a blob.
func makeBlobKey(key string) []byte {
	return []byte(blobPrefix + key)
}

// blobKeyFromDB strips the namespace from a database key.
func blobKeyFromDB(dbKey []byte) string {
	return strings.TrimPrefix(string(dbKey), blobPrefix)
}
