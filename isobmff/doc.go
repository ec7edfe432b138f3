// Package isobmff parses the ISO Base Media File Format container that
// carries HEIC still images: a tree of size-prefixed boxes rooted at a file
// type box and a meta box. The meta box in turn owns item info, item
// location, item property, and item reference boxes that together let a
// caller locate and interpret each item's encoded payload.
package isobmff
