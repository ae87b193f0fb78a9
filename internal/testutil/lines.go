package testutil

import "github.com/roach88/hyperblame/internal/ir"

// Line builds an attribution line for fixtures. prev may be nil for a
// boundary line.
func Line(change string, originLine int, content string, prev *ir.Origin) ir.AttributionLine {
	return ir.AttributionLine{
		Change:     change,
		OriginLine: originLine,
		Content:    content,
		Previous:   prev,
		Meta: ir.Meta{
			Author:  "Test Author",
			Summary: "fixture",
		},
	}
}

// Prev builds a previous pointer.
func Prev(change, path string) *ir.Origin {
	return &ir.Origin{Change: change, Path: path}
}
