package summarizer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MarkdownFormatter renders a Summary as Markdown tables.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder

	b.WriteString("# Accident Detection Summary\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", s.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	if s.RunID != "" {
		fmt.Fprintf(&b, "Run ID: %s\n", s.RunID)
	}

	if d := s.Detection; d != nil {
		b.WriteString("\n## Result\n\n")
		writeRow(&b, "Item", "Value")
		b.WriteString("|------|-------|\n")
		writeRow(&b, "Verdict", verdict(d))
		writeRow(&b, "Confidence", fmt.Sprintf("%.1f%%", d.Confidence*100))
		if d.Placeholder {
			writeRow(&b, "Mode", "Demo (placeholder)")
		} else {
			writeRow(&b, "Mode", "Model")
		}
		if d.Notice != "" {
			fmt.Fprintf(&b, "\n> %s\n", d.Notice)
		}
	}

	v := s.Video
	b.WriteString("\n## Video\n\n")
	writeRow(&b, "Item", "Value")
	b.WriteString("|------|-------|\n")
	writeRow(&b, "File", filepath.Base(v.Path))
	writeRow(&b, "Duration", fmt.Sprintf("%.2f s", v.DurationSec))
	writeRow(&b, "Resolution", fmt.Sprintf("%d × %d", v.Width, v.Height))
	if v.Codec != "" {
		writeRow(&b, "Codec", v.Codec)
	}

	p := s.Processing
	b.WriteString("\n## Processing Details\n\n")
	writeRow(&b, "Item", "Value")
	b.WriteString("|------|-------|\n")
	writeRow(&b, "Frames extracted", fmt.Sprintf("%d", p.FrameCount))
	writeRow(&b, "Frame resolution", fmt.Sprintf("%d × %d", p.FrameWidth, p.FrameHeight))
	writeRow(&b, "Color space", p.ColorSpace)
	writeRow(&b, "Normalization mean", formatTriple(p.Mean))
	writeRow(&b, "Normalization std", formatTriple(p.Std))
	writeRow(&b, "Model input shape", formatShape(p.InputShape))
	writeRow(&b, "Extraction time", fmt.Sprintf("%d ms", p.ExtractionMs))

	if e := s.Export; e != nil {
		b.WriteString("\n## Export\n\n")
		writeRow(&b, "Item", "Value")
		b.WriteString("|------|-------|\n")
		writeRow(&b, "File", e.Path)
		writeRow(&b, "Size", formatBytes(e.Bytes))
	}

	return b.String()
}

func writeRow(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", key, value)
}

func verdict(d *DetectionInfo) string {
	if d.AccidentDetected {
		return "Accident detected"
	}
	return "No accident"
}

func formatTriple(v [3]float64) string {
	return fmt.Sprintf("[%.3f, %.3f, %.3f]", v[0], v[1], v[2])
}

func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatBytes(n int) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.2f MB", float64(n)/1024/1024)
	case n >= 1024:
		return fmt.Sprintf("%.2f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
