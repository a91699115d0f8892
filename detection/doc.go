// Package detection fuses the raw output of the OCR engine and the non-text
// region proposer into one deduplicated set of components.
//
// # Merging
//
// The [Merger] takes an [Input] of text and non-text boxes and returns a
// [Result] whose components are numbered top to bottom, left to right:
//
//	in, err := detection.LoadFile("screen.json")
//	if err != nil {
//		return err
//	}
//	res := detection.NewMerger().Merge(in)
//	fmt.Println(len(res.Components), res.Stats.Dropped())
//
// The merge steps run until none of them changes the set:
//
//   - OCR words on the same row are fused into lines, and lines into
//     paragraphs
//   - a non-clickable non-text box framing exactly one text is absorbed into
//     that text (captions take precedence over their frame)
//   - a clickable box, or a box framing several texts, is kept and the texts
//     record it as their owner
//   - thin boxes touching the top or bottom edge are removed as system bars
//
// Degenerate, tiny and low-confidence boxes are dropped and counted in
// [Stats]; they are never reported as errors.
//
// # Clickability
//
// Whether a non-text box is interactive comes from a [Clickability]
// implementation. [LabelClickability] decides from the classifier label and is
// the default; tests and callers with a real classifier inject their own.
package detection
