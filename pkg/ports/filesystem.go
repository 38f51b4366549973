package ports

// FileSystem abstracts the file operations used for inputs, exports and debug output.
type FileSystem interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// ReadHead reads at most n bytes from the start of a file.
	// Used for content sniffing without loading whole videos.
	ReadHead(path string, n int) ([]byte, error)

	// WriteFile replaces a file atomically, creating parent directories.
	// Readers never observe a partially written file.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Exists checks if a file or directory exists.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory.
	Remove(path string) error
}
