package summarizer

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter renders a Summary as a YAML document.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a YAMLFormatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format implements Formatter.
func (f *YAMLFormatter) Format(s *Summary) string {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Sprintf("# failed to encode summary: %s\n", err)
	}
	return string(data)
}
