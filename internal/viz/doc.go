// Package viz renders CLI output: palette swatches, styled stat tables and
// frame-time plots.
package viz
