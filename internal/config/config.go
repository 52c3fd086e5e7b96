package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"orderhash/internal/limitorder"

	ethcommon "github.com/ethereum/go-ethereum/common"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/pflag"
)

const (
	DefaultAPIPort = 8080
	DefaultWSPort  = 8081
	DefaultRPCURL  = "http://127.0.0.1:8545"
	DefaultRPCWait = 30 * time.Second
)

type Config struct {
	APIPort       int
	WSPort        int
	RPCURL        string
	RouterAddress string
	ChainID       uint64        // 0 means ask the node
	RPCWait       time.Duration // how long to wait for the node to come up
	Debug         bool
}

func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.APIPort, "api-port", c.APIPort, "HTTP API port")
	fs.IntVar(&c.WSPort, "ws-port", c.WSPort, "WebSocket stream port")
	fs.StringVar(&c.RPCURL, "rpc-url", c.RPCURL, "JSON-RPC endpoint of the chain the router is deployed on")
	fs.StringVar(&c.RouterAddress, "router", c.RouterAddress, "Limit order router address")
	fs.Uint64Var(&c.ChainID, "chain-id", c.ChainID, "Chain ID of the domain (0 to ask the node)")
	fs.DurationVar(&c.RPCWait, "rpc-wait", c.RPCWait, "Time to wait for the RPC node to become ready")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Enable development logging")
}

// Load reads the configuration from the environment (and .env, if present)
// and then applies the config file, if one is found.
func Load() (*Config, error) {
	cfg := &Config{
		APIPort: DefaultAPIPort,
		WSPort:  DefaultWSPort,
		RPCURL:  DefaultRPCURL,
		RPCWait: DefaultRPCWait,
	}

	defaultRouter, err := limitorder.RouterContract(limitorder.LocalChainID)
	if err != nil {
		return nil, err
	}
	cfg.RouterAddress = defaultRouter.Hex()

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	path, err := ResolveConfigPath()
	if err != nil {
		return nil, err
	}
	fileCfg, err := LoadFileConfig(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyFileConfig(cfg, fileCfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadEnv() error {
	if v := os.Getenv("API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid API_PORT %q: %w", v, err)
		}
		c.APIPort = port
	}

	wsPort := os.Getenv("WS_PORT")
	if wsPort == "" {
		wsPort = os.Getenv("PORT")
	}
	if wsPort != "" {
		port, err := strconv.Atoi(wsPort)
		if err != nil {
			return fmt.Errorf("invalid WS_PORT %q: %w", wsPort, err)
		}
		c.WSPort = port
	}

	if v := os.Getenv("RPC_URL"); v != "" {
		c.RPCURL = v
	}
	if v := os.Getenv("ROUTER_ADDRESS"); v != "" {
		c.RouterAddress = v
	}

	if v := os.Getenv("CHAIN_ID"); v != "" {
		chainID, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid CHAIN_ID %q: %w", v, err)
		}
		c.ChainID = chainID
	}

	if v := os.Getenv("RPC_WAIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RPC_WAIT %q: %w", v, err)
		}
		c.RPCWait = d
	}

	c.Debug = os.Getenv("DEBUG") == "true" || strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug")
	return nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("api port %d out of range", c.APIPort)
	}
	if c.WSPort <= 0 || c.WSPort > 65535 {
		return fmt.Errorf("ws port %d out of range", c.WSPort)
	}
	if !ethcommon.IsHexAddress(c.RouterAddress) {
		return fmt.Errorf("invalid router address %q", c.RouterAddress)
	}
	if c.RPCWait < 0 {
		return fmt.Errorf("rpc wait must be >= 0")
	}
	return nil
}

func (c *Config) Router() ethcommon.Address {
	return ethcommon.HexToAddress(c.RouterAddress)
}
