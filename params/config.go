package params

import (
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

type Pipeline struct {
	// Depth of served/stored book snapshots, in levels per side.
	Depth int
	// Workers bounds how many input files convert concurrently. The
	// core stays single-threaded per file.
	Workers int
	// OutDir receives converted .bin event files.
	OutDir string
}

type Store struct {
	// Path of the pebble event store. Empty disables persistence.
	Path string
}

type API struct {
	Addr string
	// ReplaySpeed throttles websocket replay: 1.0 is recorded speed,
	// 0 streams as fast as the pipeline runs.
	ReplaySpeed float64
}

type Config struct {
	Pipeline Pipeline
	Store    Store
	API      API
	LogFile  string
}

func Default() Config {
	return Config{
		Pipeline: Pipeline{
			Depth:   5,
			Workers: runtime.NumCPU(),
			OutDir:  "data/out",
		},
		Store: Store{Path: "data/store"},
		API: API{
			Addr:        ":8080",
			ReplaySpeed: 0,
		},
		LogFile: "",
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("QSH_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Pipeline.Depth = n
		}
	}
	if v := os.Getenv("QSH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Pipeline.Workers = n
		}
	}
	if v := os.Getenv("QSH_OUT_DIR"); v != "" {
		cfg.Pipeline.OutDir = v
	}
	if v := os.Getenv("QSH_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("REPLAY_SPEED"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.API.ReplaySpeed = f
		}
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	return cfg
}
