// Package html converts HTML email bodies into line-oriented plain text.
// It strips tags, scripts and styles, keeps table rows on one line and
// decodes entities so label/value heuristics can run over the result.
package html
