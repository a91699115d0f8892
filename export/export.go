package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tsawler/uilayout/layout"
)

// Format defines the available export formats
type Format int

const (
	// FormatJSON exports the whole document as one JSON value
	FormatJSON Format = iota
	// FormatJSONL exports one component per line
	FormatJSONL
	// FormatCSV exports component rows as comma-separated values
	FormatCSV
	// FormatTSV exports component rows as tab-separated values
	FormatTSV
	// FormatHTML exports an HTML outline of the block tree
	FormatHTML
)

// String returns a human-readable representation of the export format
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatJSONL:
		return "jsonl"
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	case FormatHTML:
		return "html"
	default:
		return "unknown"
	}
}

// FileExtension returns the typical file extension for this format
func (f Format) FileExtension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatJSONL:
		return ".jsonl"
	case FormatCSV:
		return ".csv"
	case FormatTSV:
		return ".tsv"
	case FormatHTML:
		return ".html"
	default:
		return ".txt"
	}
}

// ParseFormat returns the format named by s
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "jsonl":
		return FormatJSONL, nil
	case "csv":
		return FormatCSV, nil
	case "tsv":
		return FormatTSV, nil
	case "html":
		return FormatHTML, nil
	default:
		return FormatJSON, fmt.Errorf("unsupported export format: %q", s)
	}
}

// ExportConfig holds configuration options for export
type ExportConfig struct {
	// Format specifies the export format
	Format Format

	// PrettyPrint indents JSON output
	PrettyPrint bool

	// IncludeStats keeps merge counters and warnings in JSON documents
	IncludeStats bool

	// CSVDelimiter specifies the delimiter for CSV export (default: comma)
	CSVDelimiter rune

	// IncludeHeader includes header row in CSV/TSV exports
	IncludeHeader bool
}

// DefaultExportConfig returns sensible defaults for export configuration
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		Format:        FormatJSON,
		PrettyPrint:   true,
		IncludeStats:  true,
		CSVDelimiter:  ',',
		IncludeHeader: true,
	}
}

// CSVExportConfig returns config for CSV component rows
func CSVExportConfig() ExportConfig {
	config := DefaultExportConfig()
	config.Format = FormatCSV
	return config
}

// TSVExportConfig returns config for TSV component rows
func TSVExportConfig() ExportConfig {
	config := DefaultExportConfig()
	config.Format = FormatTSV
	config.CSVDelimiter = '\t'
	return config
}

// ConfigFor returns the default configuration for a format
func ConfigFor(format Format) ExportConfig {
	switch format {
	case FormatCSV:
		return CSVExportConfig()
	case FormatTSV:
		return TSVExportConfig()
	}
	config := DefaultExportConfig()
	config.Format = format
	if format == FormatJSONL {
		config.PrettyPrint = false
	}
	return config
}

// Exporter writes analyses in one of the supported formats
type Exporter struct {
	config ExportConfig
}

// NewExporter creates a new exporter with default configuration
func NewExporter() *Exporter {
	return &Exporter{
		config: DefaultExportConfig(),
	}
}

// NewExporterWithConfig creates an exporter with custom configuration
func NewExporterWithConfig(config ExportConfig) *Exporter {
	return &Exporter{
		config: config,
	}
}

// Export writes the analysis to w
func (e *Exporter) Export(a *layout.Analysis, w io.Writer) error {
	switch e.config.Format {
	case FormatJSON:
		doc := NewDocument(a)
		if !e.config.IncludeStats {
			doc.Stats = nil
			doc.Warnings = nil
		}
		return WriteJSON(w, doc, e.config.PrettyPrint)
	case FormatJSONL:
		return e.exportJSONL(NewDocument(a), w)
	case FormatCSV, FormatTSV:
		return e.exportCSV(NewDocument(a), w)
	case FormatHTML:
		return RenderHTML(w, a)
	default:
		return fmt.Errorf("unsupported export format: %v", e.config.Format)
	}
}

// ExportToFile exports the analysis to a file
func (e *Exporter) ExportToFile(a *layout.Analysis, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}

	if err := e.Export(a, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ExportToString exports the analysis to a string
func (e *Exporter) ExportToString(a *layout.Analysis) (string, error) {
	var buf bytes.Buffer
	if err := e.Export(a, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// exportJSONL writes one component per line
func (e *Exporter) exportJSONL(doc Document, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if e.config.PrettyPrint {
		encoder.SetIndent("", "  ")
	}

	for i, c := range doc.Components {
		if err := encoder.Encode(c); err != nil {
			return fmt.Errorf("encoding component %d: %w", i, err)
		}
	}

	return nil
}

// csvColumns are the component row columns
var csvColumns = []string{
	"id", "class", "left", "top", "right", "bottom",
	"text", "label", "clickable", "owner_id", "group_id", "list_id",
}

// exportCSV writes component rows as CSV or TSV
func (e *Exporter) exportCSV(doc Document, w io.Writer) error {
	csvWriter := csv.NewWriter(w)
	if e.config.CSVDelimiter != 0 {
		csvWriter.Comma = e.config.CSVDelimiter
	}

	if e.config.IncludeHeader {
		if err := csvWriter.Write(csvColumns); err != nil {
			return fmt.Errorf("writing CSV header: %w", err)
		}
	}

	for i, c := range doc.Components {
		if err := csvWriter.Write(componentRow(c)); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// componentRow converts a component to a CSV row
func componentRow(c Component) []string {
	return []string{
		c.ID,
		c.Class,
		formatCoord(c.BBox.Left),
		formatCoord(c.BBox.Top),
		formatCoord(c.BBox.Right),
		formatCoord(c.BBox.Bottom),
		c.Text,
		c.Label,
		strconv.FormatBool(c.Clickable),
		c.OwnerID,
		c.GroupID,
		c.ListID,
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
