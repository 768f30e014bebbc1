package config

import (
	"flag"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Address         string        `env:"RUN_ADDRESS"      envDefault:"localhost:8080"`
	Database        string        `env:"DATABASE_URI"     envDefault:""`
	LogLvl          string        `env:"LOG_LVL"          envDefault:"info"`
	SolanaDevnet    bool          `env:"SOLANA_DEVNET"    envDefault:"true"`
	SolanaRPCURL    string        `env:"SOLANA_RPC_URL"   envDefault:""`
	RPCTimeout      time.Duration `env:"RPC_TIMEOUT"      envDefault:"30s"`
	RefreshSchedule string        `env:"REFRESH_SCHEDULE" envDefault:"@every 1m"`
	RefreshWorkers  int           `env:"REFRESH_WORKERS"  envDefault:"10"`
	JWTSecret       string        `env:"JWT_SECRET"       envDefault:"stableflow-dev-secret"`
	TokenTTL        time.Duration `env:"TOKEN_TTL"        envDefault:"15m"`
	AMQPURL         string        `env:"AMQP_URL"         envDefault:""`
	BlobDir         string        `env:"BLOB_DIR"         envDefault:"./data"`
	BlobBaseURL     string        `env:"BLOB_BASE_URL"    envDefault:"http://localhost:8080"`
	AppLabel        string        `env:"APP_LABEL"        envDefault:"StableFlow"`
}

func New() *Config {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	cfg := &Config{}

	env.Parse(cfg)

	flag.StringVar(&cfg.Address, "a", cfg.Address, "address and port to run server")
	flag.StringVar(&cfg.Database, "d", cfg.Database, "database DSN, in-memory store when empty")
	flag.StringVar(&cfg.LogLvl, "l", cfg.LogLvl, "log level")
	flag.StringVar(&cfg.SolanaRPCURL, "r", cfg.SolanaRPCURL, "solana rpc endpoint override")
	flag.BoolVar(&cfg.SolanaDevnet, "devnet", cfg.SolanaDevnet, "use solana devnet")
	flag.Parse()

	if cfg.SolanaRPCURL != "" && !strings.HasPrefix(cfg.SolanaRPCURL, "http://") && !strings.HasPrefix(cfg.SolanaRPCURL, "https://") {
		cfg.SolanaRPCURL = "https://" + cfg.SolanaRPCURL
	}
	cfg.BlobBaseURL = strings.TrimRight(cfg.BlobBaseURL, "/")
	if cfg.RefreshWorkers <= 0 {
		cfg.RefreshWorkers = 1
	}

	return cfg
}
