package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var defaultConfigFilenames = []string{
	"orderhash.yaml",
	"orderhash.yml",
	".orderhash.yaml",
	".orderhash.yml",
}

type FileConfig struct {
	APIPort       *int    `yaml:"api_port"`
	WSPort        *int    `yaml:"ws_port"`
	RPCURL        string  `yaml:"rpc_url"`
	RouterAddress string  `yaml:"router_address"`
	ChainID       *uint64 `yaml:"chain_id"`
	RPCWait       string  `yaml:"rpc_wait"`
	Debug         *bool   `yaml:"debug"`
}

// ResolveConfigPath returns CONFIG_FILE if set, otherwise the first default
// config file present in the working directory, otherwise "".
func ResolveConfigPath() (string, error) {
	if env := os.Getenv("CONFIG_FILE"); env != "" {
		return env, nil
	}
	for _, name := range defaultConfigFilenames {
		if fileExists(name) {
			return name, nil
		}
	}
	return "", nil
}

func LoadFileConfig(path string) (*FileConfig, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config extension: %s", filepath.Ext(path))
	}

	return &cfg, nil
}

func ApplyFileConfig(cfg *Config, fileCfg *FileConfig) error {
	if fileCfg == nil {
		return nil
	}

	if fileCfg.APIPort != nil {
		cfg.APIPort = *fileCfg.APIPort
	}
	if fileCfg.WSPort != nil {
		cfg.WSPort = *fileCfg.WSPort
	}
	if fileCfg.RPCURL != "" {
		cfg.RPCURL = fileCfg.RPCURL
	}
	if fileCfg.RouterAddress != "" {
		cfg.RouterAddress = fileCfg.RouterAddress
	}
	if fileCfg.ChainID != nil {
		cfg.ChainID = *fileCfg.ChainID
	}
	if fileCfg.RPCWait != "" {
		d, err := time.ParseDuration(fileCfg.RPCWait)
		if err != nil {
			return fmt.Errorf("invalid rpc_wait %q: %w", fileCfg.RPCWait, err)
		}
		cfg.RPCWait = d
	}
	if fileCfg.Debug != nil {
		cfg.Debug = *fileCfg.Debug
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
