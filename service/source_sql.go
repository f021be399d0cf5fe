package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"atlas/api/model"
)

// SQLTileSource 读取索引器镜像到 MySQL 的 atlas_tiles 表
type SQLTileSource struct {
	db    *gorm.DB
	batch int
}

func NewSQLTileSource(db *gorm.DB, batch int) *SQLTileSource {
	if batch <= 0 {
		batch = 1000
	}
	return &SQLTileSource{db: db, batch: batch}
}

// FetchTiles 按主键分页（keyset），避免大 offset
func (s *SQLTileSource) FetchTiles(ctx context.Context, onProgress func(float64)) ([]model.Tile, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&model.TileRow{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count tiles: %w", err)
	}

	tiles := make([]model.Tile, 0, total)
	var lastID uint64
	for {
		var rows []model.TileRow
		err := db.Where("id > ?", lastID).Order("id").Limit(s.batch).Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("query tiles after id %d: %w", lastID, err)
		}
		for _, r := range rows {
			tiles = append(tiles, r.ToTile())
		}
		if onProgress != nil && total > 0 {
			onProgress(min(float64(len(tiles))/float64(total)*100, 100))
		}
		if len(rows) < s.batch {
			break
		}
		lastID = rows[len(rows)-1].ID
	}
	return tiles, nil
}

func (s *SQLTileSource) FetchUpdatedTiles(ctx context.Context, since int64) ([]model.Tile, error) {
	var rows []model.TileRow
	err := s.db.WithContext(ctx).
		Where("updated_at > ?", since).
		Order("updated_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query tiles updated after %d: %w", since, err)
	}
	tiles := make([]model.Tile, len(rows))
	for i, r := range rows {
		tiles[i] = r.ToTile()
	}
	return tiles, nil
}
