package config

import (
	"math/big"
	"strings"
	"time"
)

// Validation tags described here: https://pkg.go.dev/github.com/go-playground/validator/v10
type Config struct {
	Airnode struct {
		Mnemonic string `env:"AIRNODE_MNEMONIC" flag:"airnode-mnemonic" desc:"airnode wallet mnemonic, enables sponsor wallet derivation"`
	}
	Chain struct {
		ID             uint64 `env:"CHAIN_ID"         flag:"chain-id"         validate:"omitempty,number" desc:"chain id used in request ids, read from the eth node when it is set"`
		EthNodeAddress string `env:"ETH_NODE_ADDRESS" flag:"eth-node-address" validate:"omitempty,url"`
		Tag            string `env:"CHAIN_TAG"        flag:"chain-tag"        desc:"tag payments use to address this chain's authorizer, defaults to the chain id"`
	}
	Environment string `env:"ENVIRONMENT" flag:"environment"`
	Ledger      struct {
		EventHistory int    `env:"LEDGER_EVENT_HISTORY" flag:"ledger-event-history" validate:"omitempty,number"   desc:"number of recent events kept in memory"`
		Manager      string `env:"MANAGER_ADDRESS"      flag:"manager-address"      validate:"required,eth_addr" desc:"manager of beacon readers and paid whitelisting"`
	}
	Log struct {
		Color       bool   `env:"LOG_COLOR"        flag:"log-color"`
		FolderPath  string `env:"LOG_FOLDER_PATH"  flag:"log-folder-path"  validate:"omitempty,dirpath" desc:"enables file logging and sets the folder path"`
		IsProd      bool   `env:"LOG_IS_PROD"      flag:"log-is-prod"      validate:""                  desc:"affects the format of the log output"`
		JSON        bool   `env:"LOG_JSON"         flag:"log-json"`
		LevelApp    string `env:"LOG_LEVEL_APP"    flag:"log-level-app"    validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
		LevelHTTP   string `env:"LOG_LEVEL_HTTP"   flag:"log-level-http"   validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
		LevelLedger string `env:"LOG_LEVEL_LEDGER" flag:"log-level-ledger" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	}
	Payment struct {
		TokenSymbol   string        `env:"PAYMENT_TOKEN_SYMBOL"    flag:"payment-token-symbol"`
		TokenMinter   string        `env:"PAYMENT_TOKEN_MINTER"    flag:"payment-token-minter"    validate:"omitempty,eth_addr"               desc:"account allowed to mint the payment token, defaults to the manager"`
		TokenDecimals uint          `env:"PAYMENT_TOKEN_DECIMALS"  flag:"payment-token-decimals"  validate:"omitempty,lte=77"`
		TokenPriceUSD string        `env:"PAYMENT_TOKEN_PRICE_USD" flag:"payment-token-price-usd" validate:"omitempty,number"                 desc:"fixed usd price of one token, ignored when a price beacon is set"`
		PriceBeaconID string        `env:"PAYMENT_PRICE_BEACON_ID" flag:"payment-price-beacon-id" validate:"omitempty,hexadecimal,len=66"      desc:"beacon that reports the usd price of one token"`
		PriceUSD      string        `env:"PAYMENT_PRICE_USD"       flag:"payment-price-usd"       validate:"omitempty,number"                 desc:"default usd price of one period of whitelisting"`
		Period        time.Duration `env:"PAYMENT_PERIOD"          flag:"payment-period"          validate:"omitempty,gt=0"`
		MinDuration   time.Duration `env:"PAYMENT_MIN_DURATION"    flag:"payment-min-duration"    validate:"omitempty,gt=0"`
		MaxDuration   time.Duration `env:"PAYMENT_MAX_DURATION"    flag:"payment-max-duration"    validate:"omitempty,gtefield=MinDuration"`
	}
	Web struct {
		Address   string `env:"WEB_ADDRESS"    flag:"web-address"    validate:"required,hostname_port" desc:"http server address host:port"`
		PublicUrl string `env:"WEB_PUBLIC_URL" flag:"web-public-url" validate:"omitempty,url"          desc:"public url of the gateway, falls back to web-address if empty"`
	}
}

func (cfg *Config) SetDefaults() {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Chain

	if cfg.Chain.ID == 0 {
		cfg.Chain.ID = 31337
	}

	// Ledger

	if cfg.Ledger.EventHistory == 0 {
		cfg.Ledger.EventHistory = 10000
	}

	// Log

	if cfg.Log.LevelApp == "" {
		cfg.Log.LevelApp = "debug"
	}
	if cfg.Log.LevelHTTP == "" {
		cfg.Log.LevelHTTP = "info"
	}
	if cfg.Log.LevelLedger == "" {
		cfg.Log.LevelLedger = "info"
	}

	// Payment

	if cfg.Payment.TokenSymbol == "" {
		cfg.Payment.TokenSymbol = "API3"
	}
	if cfg.Payment.TokenMinter == "" {
		cfg.Payment.TokenMinter = cfg.Ledger.Manager
	}
	if cfg.Payment.TokenDecimals == 0 {
		cfg.Payment.TokenDecimals = 18
	}
	if cfg.Payment.TokenPriceUSD == "" {
		cfg.Payment.TokenPriceUSD = "1"
	}
	if cfg.Payment.PriceUSD == "" {
		cfg.Payment.PriceUSD = "100"
	}
	if cfg.Payment.Period == 0 {
		cfg.Payment.Period = 30 * 24 * time.Hour
	}
	if cfg.Payment.MinDuration == 0 {
		cfg.Payment.MinDuration = 24 * time.Hour
	}
	if cfg.Payment.MaxDuration == 0 {
		cfg.Payment.MaxDuration = 365 * 24 * time.Hour
	}

	// Web

	if cfg.Web.Address == "" {
		cfg.Web.Address = "0.0.0.0:8080"
	}
	if cfg.Web.PublicUrl == "" {
		cfg.Web.PublicUrl = "http://localhost:8080"
	}

	cfg.Airnode.Mnemonic = strings.TrimSpace(cfg.Airnode.Mnemonic)
}

// PaymentPriceUSD and PaymentTokenPriceUSD parse validated numeric strings
func (cfg *Config) PaymentPriceUSD() *big.Int {
	v, _ := new(big.Int).SetString(cfg.Payment.PriceUSD, 10)
	return v
}

func (cfg *Config) PaymentTokenPriceUSD() *big.Int {
	v, _ := new(big.Int).SetString(cfg.Payment.TokenPriceUSD, 10)
	return v
}

// GetSanitized returns a copy of the config with sensitive data removed
// explicitly adding each field here to avoid accidentally leaking sensitive data
func (cfg *Config) GetSanitized() interface{} {
	publicCfg := Config{}

	publicCfg.Chain.ID = cfg.Chain.ID
	publicCfg.Chain.Tag = cfg.Chain.Tag
	publicCfg.Environment = cfg.Environment

	publicCfg.Ledger.EventHistory = cfg.Ledger.EventHistory
	publicCfg.Ledger.Manager = cfg.Ledger.Manager

	publicCfg.Log.Color = cfg.Log.Color
	publicCfg.Log.FolderPath = cfg.Log.FolderPath
	publicCfg.Log.IsProd = cfg.Log.IsProd
	publicCfg.Log.JSON = cfg.Log.JSON
	publicCfg.Log.LevelApp = cfg.Log.LevelApp
	publicCfg.Log.LevelHTTP = cfg.Log.LevelHTTP
	publicCfg.Log.LevelLedger = cfg.Log.LevelLedger

	publicCfg.Payment = cfg.Payment

	publicCfg.Web.Address = cfg.Web.Address
	publicCfg.Web.PublicUrl = cfg.Web.PublicUrl

	return publicCfg
}
