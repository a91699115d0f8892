// Package export turns a layout analysis into the documents handed to
// downstream consumers: block captioning and task matching.
//
// The canonical form is a Document, a JSON tree with a flat component list
// and the block hierarchy. Identifiers are prefixed by kind so that a child
// reference is unambiguous on its own:
//
//	c-N  component
//	g-N  group
//	l-N  list
//	b-N  block
//
// An Exporter writes the same analysis as JSON, JSON Lines (one component per
// line), CSV/TSV component rows, or an HTML outline for inspection in a
// browser:
//
//	exp := export.NewExporterWithConfig(export.CSVExportConfig())
//	err := exp.Export(analysis, os.Stdout)
package export
