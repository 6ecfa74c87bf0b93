// Package htmlrender turns reconstructed PDF pages into HTML fragments and
// joins consecutive pages into one document fragment.
//
// A page renders as a flat sequence of <p> and <img> elements in top-down
// order, each annotated with the alignment inferred by the layout package.
// [Stitch] then concatenates pages, merging a paragraph that a page break
// cut mid-sentence with the first paragraph of the following page.
package htmlrender
