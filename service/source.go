package service

import (
	"fmt"

	"atlas/api/config"
	"atlas/api/system"
	"atlas/api/thirdpart"
)

// BuildSource 按 TILE_SOURCE 选择数据源
func BuildSource(cfg *config.Config, world *config.World) (TileSource, error) {
	switch cfg.TileSource {
	case config.SourceSubgraph, "":
		specials, err := world.SpecialTiles()
		if err != nil {
			return nil, fmt.Errorf("special tiles: %w", err)
		}
		client := thirdpart.NewSubgraphClient(thirdpart.SubgraphOptions{
			URL:           cfg.ApiURL,
			BatchSize:     cfg.ApiBatchSize,
			Concurrency:   cfg.ApiConcurrency,
			ExpectedTiles: cfg.ExpectedTiles,
			Timeout:       cfg.ApiTimeout,
			RateLimit:     cfg.ApiRateLimit,
		})
		return thirdpart.NewSubgraphTileSource(client, specials), nil
	case config.SourceMySQL:
		if err := system.InitDb(cfg.MysqlDSN); err != nil {
			return nil, fmt.Errorf("init mysql: %w", err)
		}
		return NewSQLTileSource(system.GetDb(), cfg.ApiBatchSize), nil
	}
	return nil, fmt.Errorf("unknown tile source %q", cfg.TileSource)
}
