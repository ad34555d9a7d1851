// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DocumentBackend identifies how Word documents are converted to PDF.
type DocumentBackend string

const (
	// BackendSoffice runs a locally installed LibreOffice binary.
	BackendSoffice DocumentBackend = "soffice"
	// BackendContainer runs LibreOffice inside a docker or podman container.
	BackendContainer DocumentBackend = "container"
)

// ImageConfig holds settings for raster image conversion.
type ImageConfig struct {
	// DPI is the resolution used to size the PDF page (default 100).
	DPI float64 `json:"dpi" yaml:"dpi"`
}

// DocumentConfig holds settings for Word document conversion.
type DocumentConfig struct {
	// Backend selects the conversion backend: soffice or container.
	Backend DocumentBackend `json:"backend" yaml:"backend"`

	// Binary is the LibreOffice executable for the soffice backend.
	Binary string `json:"binary" yaml:"binary"`

	// Image is the container image for the container backend. Its entrypoint
	// must be soffice.
	Image string `json:"image" yaml:"image"`
}

// WebConfig holds settings for HTML rendering through headless Chrome.
type WebConfig struct {
	// Enabled turns HTML conversion on. When off, HTML files are skipped
	// like any unsupported file.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// ExecPath overrides the Chrome binary chromedp launches.
	ExecPath string `json:"exec_path,omitempty" yaml:"exec_path,omitempty"`
}

// HistoryConfig holds settings for the job history ledger.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty disables history.
	Path string `json:"path" yaml:"path"`
}

// StorageConfig holds settings for publishing merged output to an
// S3-compatible object store.
type StorageConfig struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	Bucket    string `json:"bucket" yaml:"bucket"`
	Prefix    string `json:"prefix" yaml:"prefix"`
	UseSSL    bool   `json:"use_ssl" yaml:"use_ssl"`
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`
}

// Enabled reports whether enough is configured to publish.
func (c StorageConfig) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// MergeConfig groups everything the merge pipeline needs.
type MergeConfig struct {
	// ScratchDir is the parent directory for per-job scratch directories
	// (default os.TempDir()).
	ScratchDir string `json:"scratch_dir" yaml:"scratch_dir"`

	Image    ImageConfig    `json:"image" yaml:"image"`
	Document DocumentConfig `json:"document" yaml:"document"`
	Web      WebConfig      `json:"web" yaml:"web"`
}

// AppConfig is the full application configuration as read by viper.
type AppConfig struct {
	Merge   MergeConfig   `json:"merge" yaml:"merge"`
	History HistoryConfig `json:"history" yaml:"history"`
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// ServerAddr is the listen address for the HTTP surface.
	ServerAddr string `json:"server_addr" yaml:"server_addr"`

	// LogLevel is a logrus level name (default info).
	LogLevel string `json:"log_level" yaml:"log_level"`
}
