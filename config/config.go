package config

import (
	"errors"
	"io/fs"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SourceSubgraph = "subgraph"
	SourceMySQL    = "mysql"
)

type Config struct {
	Host       string
	Port       int
	CorsOrigin string
	CorsMethod string

	TileSource     string
	ApiURL         string
	ApiBatchSize   int
	ApiConcurrency int
	ApiTimeout     time.Duration
	ApiRateLimit   float64
	ExpectedTiles  int
	MysqlDSN       string

	RefreshInterval time.Duration

	LandContractAddress   string
	EstateContractAddress string
	ServerURL             string
	MarketplaceURL        string
	DissolvedEstateImage  string

	WorldFile         string
	RenderConcurrency int64
	CacheMaxCost      int64
	MiniMapTileSize   int

	LogLevel string
	LogFile  string
	LogJSON  bool
	GinMode  string
}

var (
	once sync.Once
	cfg  *Config
)

var defaults = map[string]interface{}{
	"HTTP_SERVER_HOST":        "0.0.0.0",
	"HTTP_SERVER_PORT":        5000,
	"CORS_ORIGIN":             "*",
	"CORS_METHOD":             "*",
	"TILE_SOURCE":             SourceSubgraph,
	"API_URL":                 "https://api.thegraph.com/subgraphs/name/decentraland/marketplace",
	"API_BATCH_SIZE":          1000,
	"API_CONCURRENCY":         10,
	"API_TIMEOUT":             30,
	"API_RATE_LIMIT":          20,
	"API_EXPECTED_TILES":      90601,
	"MYSQL_DSN":               "",
	"REFRESH_INTERVAL":        60,
	"LAND_CONTRACT_ADDRESS":   "0xF87E31492Faf9A91B02Ee0dEAAd50d51d56D5d4d",
	"ESTATE_CONTRACT_ADDRESS": "0x959e104E1a4dB6317fA58F8295F586e1A978c297",
	"SERVER_URL":              "http://localhost:5000",
	"MARKETPLACE_URL":         "https://market.decentraland.org",
	"DISSOLVED_ESTATE_IMAGE":  "https://ui.decentraland.org/dissolved_estate.png",
	"WORLD_FILE":              "",
	"RENDER_CONCURRENCY":      8,
	"CACHE_MAX_COST":          256 << 20,
	"MINIMAP_TILE_SIZE":       4,
	"LOG_LEVEL":               "info",
	"LOG_FILE":                "",
	"LOG_JSON":                false,
	"GIN_MODE":                "release",
}

// Get 读取配置（只加载一次）。优先级：进程环境变量 > .env > .env.defaults > 内置默认值
func Get() *Config {
	once.Do(func() {
		loadDotEnv(".env", ".env.defaults")
		cfg = Load(viper.New())
	})
	return cfg
}

// Load 从给定的 viper 实例构建配置，测试中可直接传入预先 Set 过的实例
func Load(v *viper.Viper) *Config {
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	return &Config{
		Host:       v.GetString("HTTP_SERVER_HOST"),
		Port:       v.GetInt("HTTP_SERVER_PORT"),
		CorsOrigin: v.GetString("CORS_ORIGIN"),
		CorsMethod: v.GetString("CORS_METHOD"),

		TileSource:     v.GetString("TILE_SOURCE"),
		ApiURL:         v.GetString("API_URL"),
		ApiBatchSize:   v.GetInt("API_BATCH_SIZE"),
		ApiConcurrency: v.GetInt("API_CONCURRENCY"),
		ApiTimeout:     time.Duration(v.GetInt("API_TIMEOUT")) * time.Second,
		ApiRateLimit:   v.GetFloat64("API_RATE_LIMIT"),
		ExpectedTiles:  v.GetInt("API_EXPECTED_TILES"),
		MysqlDSN:       v.GetString("MYSQL_DSN"),

		RefreshInterval: time.Duration(v.GetInt("REFRESH_INTERVAL")) * time.Second,

		LandContractAddress:   v.GetString("LAND_CONTRACT_ADDRESS"),
		EstateContractAddress: v.GetString("ESTATE_CONTRACT_ADDRESS"),
		ServerURL:             v.GetString("SERVER_URL"),
		MarketplaceURL:        v.GetString("MARKETPLACE_URL"),
		DissolvedEstateImage:  v.GetString("DISSOLVED_ESTATE_IMAGE"),

		WorldFile:         v.GetString("WORLD_FILE"),
		RenderConcurrency: v.GetInt64("RENDER_CONCURRENCY"),
		CacheMaxCost:      v.GetInt64("CACHE_MAX_COST"),
		MiniMapTileSize:   v.GetInt("MINIMAP_TILE_SIZE"),

		LogLevel: v.GetString("LOG_LEVEL"),
		LogFile:  v.GetString("LOG_FILE"),
		LogJSON:  v.GetBool("LOG_JSON"),
		GinMode:  v.GetString("GIN_MODE"),
	}
}

// godotenv 不会覆盖已存在的变量，所以先加载的文件优先
func loadDotEnv(files ...string) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}
}
