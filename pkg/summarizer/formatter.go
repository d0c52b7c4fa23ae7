// Package summarizer provides summary generation for build attempts.
package summarizer

// Formatter defines the interface for formatting a Summary.
type Formatter interface {
	// Format converts a Summary to a formatted string.
	Format(summary *Summary) string
}

// FormatFunc is a function adapter for the Formatter interface.
type FormatFunc func(summary *Summary) string

// Format implements the Formatter interface.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// ForPath picks the formatter matching the file extension of path:
// YAML for .yaml and .yml, markdown otherwise.
func ForPath(path string, opts ...MarkdownOption) Formatter {
	switch ext(path) {
	case ".yaml", ".yml":
		return NewYAMLFormatter()
	default:
		return NewMarkdownFormatter(opts...)
	}
}
