package mjpeg

// MJPEGConfig holds the stream server settings, fixed for the process lifetime.
type MJPEGConfig struct {
	Port     int    // Listening port (default 8080)
	Boundary string // Multipart boundary token (default "frame")
}

// DefaultConfig returns the default stream server settings
func DefaultConfig() MJPEGConfig {
	return MJPEGConfig{
		Port:     8080,
		Boundary: "frame",
	}
}
