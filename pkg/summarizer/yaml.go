package summarizer

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter renders a Summary as a YAML document.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAMLFormatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format implements Formatter.
func (f *YAMLFormatter) Format(s *Summary) string {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Sprintf("# summary could not be encoded: %v\n", err)
	}
	return string(data)
}
