package helper

import (
	"fmt"

	"github.com/google/uuid"
)

// recordNamespace seeds the deterministic point UUIDs. Changing it orphans
// every previously upserted point, so treat it as frozen.
var recordNamespace = uuid.MustParse("9f2c5e8a-0b1d-4e6f-8a3c-7d5e2b4a1c9e")

// RecordID builds the stable external identifier for a chunk. Re-ingesting
// the same file yields the same ids, which is what makes the upsert
// idempotent.
func RecordID(filename string, chunkIndex int) string {
	return fmt.Sprintf("%s-%d", filename, chunkIndex)
}

// PointUUID maps a record id onto a UUID, since some backends (Qdrant)
// only accept UUID or integer point ids. UUIDv5 keeps it deterministic.
func PointUUID(recordID string) string {
	return uuid.NewSHA1(recordNamespace, []byte(recordID)).String()
}
