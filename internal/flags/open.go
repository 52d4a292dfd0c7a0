package flags

// Open returns the Store for backend ("file" or "sqlite") rooted at dir.
// An unknown backend falls back to plain files.
func Open(backend, dir string) (Store, error) {
	if backend == "sqlite" {
		return OpenSQLite(dir)
	}
	return NewFileStore(dir), nil
}
