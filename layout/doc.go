// Package layout reconstructs the hierarchical layout of a screen from a flat
// set of detected components.
//
// # Pipeline
//
// The [Analyzer] runs the stages in order:
//
//	analyzer := layout.NewAnalyzer()
//	analysis, err := analyzer.Analyze(input)
//	if errors.Is(err, layout.ErrDetectionEmpty) {
//		// analysis.Root is a childless root; re-run detection or skip the screen
//	}
//
// The stages can also be used on their own:
//
//   - [Table] - indexed view over the merged components with same-row,
//     same-column, size and neighbour queries and write-once annotations
//   - [GroupRecognizer] - clusters components into row and column groups
//   - [PairRecognizer] - merges congruent, repeated groups into lists and
//     dissolves groups that cannot stand on their own
//   - [BlockSlicer] - recursively cuts the screen into bands and builds the
//     block tree
//
// # Errors
//
// Geometric problems are absorbed and counted. [ErrDetectionEmpty] is
// recoverable and comes with a usable [Analysis]. A [ReassignmentError]
// (matching [ErrReassignmentConflict]) means two stages disagreed about an
// annotation and is always a bug.
//
// # Configuration
//
// Every threshold is a named field with a default:
//
//	config := layout.DefaultAnalyzerConfig()
//	config.Group.RowGapFactor = 2.0
//	config.Pair.PromoteGroups = true
//	analyzer := layout.NewAnalyzerWithConfig(config)
//
// [LoadConfig] reads the same structure from a JSON file.
package layout
