// Command util renders atlas images offline: it bulk loads tiles from the
// configured source and writes a PNG without starting the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"atlas/api/config"
	"atlas/api/log"
	"atlas/api/model"
	"atlas/api/service"
)

func main() {
	output := flag.String("output", "map.png", "Path of the PNG to write")
	mode := flag.String("mode", "map", "map | minimap | estatemap | estate")
	center := flag.String("center", "0,0", "Center tile x,y")
	selected := flag.String("selected", "", "Selected tiles x1,y1;x2,y2")
	estate := flag.String("estate", "", "Estate id for -mode=estate")
	width := flag.Int("width", 1024, "Image width in pixels")
	height := flag.Int("height", 1024, "Image height in pixels")
	size := flag.Int("size", 20, "Tile size in pixels")
	onSale := flag.Bool("on-sale", false, "Highlight parcels on sale")
	flag.Parse()

	if err := run(*output, *mode, *center, *selected, *estate, *width, *height, *size, *onSale); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(output, mode, center, selected, estate string, width, height, size int, onSale bool) error {
	cfg := config.Get()
	log.Setup(log.Options{Level: "warn"})

	world, err := config.LoadWorld(cfg.WorldFile)
	if err != nil {
		return err
	}
	source, err := service.BuildSource(cfg, world)
	if err != nil {
		return err
	}
	decals, err := service.LoadDecals(world)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	maps := service.NewMapService(source, service.MapOptions{
		LandContractAddress:   cfg.LandContractAddress,
		EstateContractAddress: cfg.EstateContractAddress,
	}, service.ProgressBarObserver(os.Stderr))
	if err := maps.BulkLoad(ctx); err != nil {
		return err
	}
	images := service.NewImageService(maps, decals, 1, cfg.MiniMapTileSize)
	snap, err := maps.Snapshot()
	if err != nil {
		return err
	}

	var png []byte
	switch mode {
	case "minimap":
		png, err = images.MiniMap(ctx, snap)
	case "estatemap":
		png, err = images.EstateMiniMap(ctx, snap)
	case "map", "estate":
		req := service.MapRequest{Width: width, Height: height, Size: size, ShowOnSale: onSale}
		if req.Center, err = model.ParseCoord(center); err != nil {
			return err
		}
		if req.Selected, err = model.ParseCoordList(selected); err != nil {
			return err
		}
		if mode == "estate" {
			if req.Selected, req.Center, err = images.EstateSelection(estate); err != nil {
				return fmt.Errorf("estate %q: %w", estate, err)
			}
		}
		png, err = images.RenderPNG(ctx, req)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, png, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes, %d tiles)\n", output, len(png), tileCount(maps))
	return nil
}

func tileCount(maps *service.MapService) int {
	tiles, err := maps.Tiles()
	if err != nil {
		return 0
	}
	return len(tiles)
}
