package cache

import "fmt"

// SnapshotKey is the Redis key for a stored snapshot. Through Scoped the
// id is "{owner}:{jobID}", giving trainwatch:metrics:{owner}:{jobID}.
func SnapshotKey(id string) string {
	return fmt.Sprintf("trainwatch:metrics:%s", id)
}
