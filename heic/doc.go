// Package heic decodes a HEIC still-image file: it parses the ISO BMFF
// container, locates the primary item (a single hvc1 picture or a grid of
// hvc1 tiles), and walks each tile's HEVC bitstream through parameter sets
// and the slice segment header, then initialises a CABAC decoder at the
// start of the slice data. Slice data is not entropy-decoded and pixels are
// not reconstructed; Decode succeeds once every tile's slice segment header
// has been parsed and its CABAC decoder initialised.
package heic
