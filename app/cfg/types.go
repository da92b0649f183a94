package cfg

// Output formats supported by the compiler.
const (
	FormatPDF      = "pdf"
	FormatEPUB     = "epub"
	FormatJSON     = "json"
	FormatHTML     = "html"
	FormatTXT      = "txt"
	FormatMarkdown = "md"
)

type Cfg struct {
	// Network configuration
	Timeout       int
	MaxRetries    int
	RetryBackoff  float64
	RateDelay     float64
	UserAgent     string
	PageSize      int
	WorkerCount   int
	MaxImageSize  int64

	// Output configuration
	OutputDir string

	// Cache configuration
	CacheEnabled bool
	CacheDir     string

	// Application metadata
	Debug   bool
	Version string

	// Run options (CLI surface)
	URL        string
	Format     string
	Output     string
	Limit      int
	Cookie     string
	Update     bool
	ClearCache bool
	VerifyAuth bool
}

// IsValidFormat reports whether s names a supported output format.
func IsValidFormat(s string) bool {
	switch s {
	case FormatPDF, FormatEPUB, FormatJSON, FormatHTML, FormatTXT, FormatMarkdown:
		return true
	}
	return false
}

// MimeType returns the declared MIME type for an output format.
func MimeType(format string) string {
	switch format {
	case FormatPDF:
		return "application/pdf"
	case FormatEPUB:
		return "application/epub+zip"
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html"
	case FormatTXT:
		return "text/plain"
	case FormatMarkdown:
		return "text/markdown"
	}
	return "application/octet-stream"
}
