package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	apihttp "atlas/api/api/http"
	"atlas/api/api/http/controller/home"
	mycache "atlas/api/cache"
	"atlas/api/config"
	"atlas/api/log"
	"atlas/api/service"
)

func main() {
	cfg := config.Get()
	log.Setup(log.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  100,
		MaxBackups: 7,
		MaxAgeDays: 30,
		JSON:       cfg.LogJSON,
	})

	world, err := config.LoadWorld(cfg.WorldFile)
	if err != nil {
		log.Fatalf("load world: %v", err)
	}
	source, err := service.BuildSource(cfg, world)
	if err != nil {
		log.Fatalf("tile source: %v", err)
	}
	decals, err := service.LoadDecals(world)
	if err != nil {
		log.Fatalf("load decals: %v", err)
	}

	hub := service.NewHub()
	maps := service.NewMapService(source, service.MapOptions{
		LandContractAddress:   cfg.LandContractAddress,
		EstateContractAddress: cfg.EstateContractAddress,
		RefreshInterval:       cfg.RefreshInterval,
	}, service.LogObserver(), hub.Observer())

	tokens, err := service.NewTokenService(maps, service.TokenOptions{
		LandContractAddress:   cfg.LandContractAddress,
		EstateContractAddress: cfg.EstateContractAddress,
		ServerURL:             cfg.ServerURL,
		MarketplaceURL:        cfg.MarketplaceURL,
		DissolvedEstateImage:  cfg.DissolvedEstateImage,
	})
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	cache, err := mycache.NewResponseCache[[]byte](cfg.CacheMaxCost, func(b []byte) int64 { return int64(len(b)) })
	if err != nil {
		log.Fatalf("response cache: %v", err)
	}

	home.Init(home.Deps{
		Maps:                 maps,
		Images:               service.NewImageService(maps, decals, cfg.RenderConcurrency, cfg.MiniMapTileSize),
		Tokens:               tokens,
		Hub:                  hub,
		Cache:                cache,
		DissolvedEstateImage: cfg.DissolvedEstateImage,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		// 全量加载失败后服务保持未就绪，/ready 持续返回 503
		if err := maps.Run(ctx); err != nil {
			log.Errorf("map sync stopped: %v", err)
		}
	}()

	engine := apihttp.NewEngine(cfg, maps)
	if err := apihttp.Serve(ctx, cfg, apihttp.Handler(engine)); err != nil {
		log.Fatalf("http server: %v", err)
	}
	log.Info("bye")
}
