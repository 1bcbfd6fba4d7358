package region

// OpenOptions configures Open.
type OpenOptions struct {
	// CreateIfNotFound creates path (and its parent directory) using the
	// currently staged format when no file exists there yet.
	CreateIfNotFound bool

	// BackupBeforeMigration copies the file to <path>.bak-<uuid> before
	// the first migrating write, the opt-in version of the "make a
	// backup?" block the original engine left commented out.
	BackupBeforeMigration bool
}
