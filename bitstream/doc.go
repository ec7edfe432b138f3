// Package bitstream provides byte- and bit-granular readers over a single
// immutable buffer, plus exponential-Golomb decoding and RBSP emulation
// prevention removal for HEVC NAL unit payloads.
package bitstream
