package config

// Default paths for databases and uploads
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./scribe.db"

	// DefaultUploadDir is where processed cover images are written
	DefaultUploadDir = "./static/uploads"

	// DefaultMaxUploadBytes caps a multipart story submission (16 MiB)
	DefaultMaxUploadBytes = 16 << 20
)
