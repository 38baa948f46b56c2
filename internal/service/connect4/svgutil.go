package connect4

import "bytes"

// sanitizeSVG normalizes "prop: #hex" spacing that oksvg fails to parse.
func sanitizeSVG(svg []byte) []byte {
	fixed := svg
	for _, prop := range []string{"fill", "stroke", "stop-color"} {
		fixed = bytes.ReplaceAll(fixed, []byte(prop+": #"), []byte(prop+":#"))
	}
	return fixed
}
