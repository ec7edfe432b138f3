// Package hevc decodes HEVC (H.265) parameter sets and slice segment
// headers for intra (I-slice) pictures, the only slice kind HEIC still
// images use. NAL unit payloads are expected to have had emulation
// prevention removed (see package bitstream) before being handed to the
// parsers here.
package hevc
