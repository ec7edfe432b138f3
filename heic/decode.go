package heic

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/go-heic/heic/heicerr"
	"github.com/go-heic/heic/isobmff"
)

// DecodedPicture is the result of decoding every tile of a HEIC file's
// primary item through slice segment header parsing and CABAC
// initialization. It carries the container and per-tile bitstream state;
// pixel reconstruction from the CABAC-decoded syntax elements is out of
// scope and has no representation here.
type DecodedPicture struct {
	Heif  *isobmff.Heif
	Width int
	// Height is the primary item's nominal picture height: the ispe
	// property when present, otherwise the SPS's own dimensions.
	Height int

	// Tiles holds one TileResult per grid tile in raster order, or a
	// single entry when the primary item is a standalone hvc1 picture.
	Tiles []*TileResult
}

// Decode parses a HEIC file and decodes every tile's slice segment header
// and CABAC entropy state. ctx governs cooperative cancellation between
// tiles only; a cancelled context aborts the remaining tiles, and Decode
// then returns the error with no partial result.
func Decode(ctx context.Context, data []byte) (*DecodedPicture, error) {
	h, err := isobmff.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("container: %w", err)
	}

	primaryID := h.PrimaryItemID()
	info, ok := h.ItemInfoByID(primaryID)
	if !ok {
		return nil, fmt.Errorf("%w: primary item %d has no item info entry", heicerr.ErrProfileMismatch, primaryID)
	}

	var tileIDs []uint32
	switch info.ItemType {
	case isobmff.ItemTypeGrid:
		tileIDs = h.TileItemIDs()
		if len(tileIDs) == 0 {
			return nil, fmt.Errorf("%w: grid primary item %d has no dimg tile references", heicerr.ErrMalformed, primaryID)
		}
	case isobmff.ItemTypeHVC1:
		tileIDs = []uint32{primaryID}
	default:
		return nil, fmt.Errorf("%w: primary item type %s is neither hvc1 nor grid", heicerr.ErrProfileMismatch, info.ItemType)
	}

	tiles, err := decodeTilesConcurrently(ctx, h, data, tileIDs)
	if err != nil {
		return nil, err
	}

	pic := &DecodedPicture{Heif: h, Tiles: tiles}
	if w, hgt, ok := primaryDimensions(h, primaryID); ok {
		pic.Width, pic.Height = int(w), int(hgt)
	} else if len(tiles) > 0 {
		pic.Width = int(tiles[0].SPS.PicWidthInLumaSamples)
		pic.Height = int(tiles[0].SPS.PicHeightInLumaSamples)
	}
	return pic, nil
}

// decodeTilesConcurrently runs one goroutine per tile, grounded on the
// teacher's errgroup.WithContext(ctx) supervision pattern in
// cmd/prism/main.go, bounded to GOMAXPROCS workers since each tile's CABAC
// walk is CPU-bound and independent of the others.
func decodeTilesConcurrently(ctx context.Context, h *isobmff.Heif, root []byte, tileIDs []uint32) ([]*TileResult, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	results := make([]*TileResult, len(tileIDs))
	for i, id := range tileIDs {
		i, id := i, id
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			hvcCData, err := hvcCForItem(h, id)
			if err != nil {
				return err
			}
			params, err := parseParameterSets(hvcCData)
			if err != nil {
				return fmt.Errorf("item %d: %w", id, err)
			}

			itemData, err := h.ItemData(root, id)
			if err != nil {
				return fmt.Errorf("item %d: %w", id, err)
			}

			tile, err := decodeTile(id, itemData, params)
			if err != nil {
				return err
			}
			results[i] = tile
			slog.Debug("tile decoded", "item_id", id, "slice_qp", tile.SliceQP)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// primaryDimensions reads the ispe (image spatial extents) property of
// itemID, the authoritative source for a possibly-cropped grid picture's
// overall dimensions (distinct from any one tile's own SPS dimensions).
func primaryDimensions(h *isobmff.Heif, itemID uint32) (width, height uint32, ok bool) {
	for _, prop := range h.Meta.ItemProps.PropertiesForItem(itemID) {
		if prop.Kind == isobmff.PropertySpatialExtents {
			return prop.SpatialExtents.Width, prop.SpatialExtents.Height, true
		}
	}
	return 0, 0, false
}
