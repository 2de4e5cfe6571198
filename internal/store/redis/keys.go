package redis

// The store persists under three fixed keys, plus dated backup keys
// written by the backup scheduler.
const (
	// KeyHighlights holds the full record map, JSON-encoded, keyed by id.
	KeyHighlights = "webmark:highlights"
	// KeySettings holds the user settings singleton.
	KeySettings = "webmark:settings"
	// KeyStats holds the aggregate stats singleton.
	KeyStats = "webmark:stats"
	// KeyPrefixBackup prefixes dated backup snapshots.
	KeyPrefixBackup = "webmark:backup:"
)

// BackupKey returns the key for a backup snapshot taken on the given
// date (YYYY-MM-DD).
func BackupKey(date string) string {
	return KeyPrefixBackup + date
}
