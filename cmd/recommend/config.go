package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"addon_engine/internal/recommend"
	"addon_engine/internal/scorer"
	"addon_engine/internal/server"
	"addon_engine/internal/situation"
	"addon_engine/internal/supervisor"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix 环境变量前缀，节之间用双下划线分隔：ADDON_SESSION__MAX_CART_ITEMS -> session.max_cart_items
const EnvPrefix = "ADDON_"

// ServerConfig 对应 configs/server.yaml
type ServerConfig struct {
	Server     HTTPConfig        `koanf:"server"`
	Artifacts  recommend.Config  `koanf:"artifacts"`
	Recommend  recommend.Options `koanf:"recommend"`
	Situation  situation.Config  `koanf:"situation"`
	Session    SessionConfig     `koanf:"session"`
	History    HistoryConfig     `koanf:"history"`
	Supervisor supervisor.Config `koanf:"supervisor"`
}

type HTTPConfig struct {
	Port      string        `koanf:"port" validate:"required,numeric"`
	Debug     bool          `koanf:"debug"`
	LogFormat string        `koanf:"log_format" validate:"omitempty,oneof=console json"`
	HTTP      server.Config `koanf:"http"`
}

type SessionConfig struct {
	MaxCartItems int           `koanf:"max_cart_items" validate:"gte=0"`
	PriceSeed    int64         `koanf:"price_seed"`
	TTL          time.Duration `koanf:"ttl"`
}

type HistoryConfig struct {
	Backend       string `koanf:"backend" validate:"omitempty,oneof=file badger"`
	Path          string `koanf:"path"` // 为空时不记录曝光
	RetentionDays int    `koanf:"retention_days" validate:"gte=0"`
}

func defaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: HTTPConfig{Port: "8080", LogFormat: "console"},
		Artifacts: recommend.Config{
			Catalog:  "data/catalog_sample.csv",
			Contract: "data/feature_cols.json",
			Model:    scorer.Config{Path: "data/model_logistic.json", Format: "auto"},
			Labels:   "configs/categories.yaml",
		},
		Recommend: recommend.Options{Timeout: 2 * time.Second, Locale: "en"},
		Situation: situation.Config{Mode: "fixed", Hour: 20, MealSlot: "dinner"},
		Session:   SessionConfig{TTL: 30 * time.Minute},
		History:   HistoryConfig{Backend: "file", Path: "data/history.jsonl", RetentionDays: 7},
	}
}

// InitServerConfig 初始化服务器配置，优先级：命令行参数 > 环境变量 > 配置文件 > 默认值
func InitServerConfig(args []string) (*ServerConfig, error) {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	// 将默认值设置为空字符串，以便优先使用配置文件中的值
	configPath := fs.String("config", "configs/server.yaml", "Path to server config file")
	portFlag := fs.String("port", "", "Server port")
	debugFlag := fs.Bool("debug", false, "Enable debug logging")
	catalogFlag := fs.String("catalog", "", "Path to catalog CSV")
	contractFlag := fs.String("features", "", "Path to feature contract")
	modelFlag := fs.String("model", "", "Path to model artifact (.onnx or logistic .json)")
	pipelineFlag := fs.String("pipelines", "", "Path to pipelines.json")
	historyFlag := fs.String("history", "", "Path to history.jsonl")
	clockFlag := fs.Bool("clock", false, "Use wall-clock situational context")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// 1. 默认值
	if err := k.Load(structs.Provider(defaultServerConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. 配置文件，默认路径不存在时直接使用默认值
	if _, err := os.Stat(*configPath); err == nil {
		if err := k.Load(file.Provider(*configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", *configPath, err)
		}
	} else if explicitlySet(fs, "config") {
		return nil, fmt.Errorf("config file %s: %w", *configPath, err)
	}

	// 3. 环境变量
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &ServerConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// 4. 命令行参数 (优先级最高)
	if *portFlag != "" {
		cfg.Server.Port = *portFlag
	}
	if *debugFlag {
		cfg.Server.Debug = true
	}
	if *catalogFlag != "" {
		cfg.Artifacts.Catalog = *catalogFlag
	}
	if *contractFlag != "" {
		cfg.Artifacts.Contract = *contractFlag
	}
	if *modelFlag != "" {
		cfg.Artifacts.Model.Path = *modelFlag
	}
	if *pipelineFlag != "" {
		cfg.Artifacts.Pipelines = *pipelineFlag
	}
	if *historyFlag != "" {
		cfg.History.Path = *historyFlag
	}
	if *clockFlag {
		cfg.Situation.Mode = "clock"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查启动必需的配置项
func (c *ServerConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Artifacts.Catalog == "" || c.Artifacts.Contract == "" || c.Artifacts.Model.Path == "" {
		return fmt.Errorf("invalid configuration: catalog, feature contract and model paths are required")
	}
	if c.Recommend.Timeout < 0 || c.Session.TTL < 0 {
		return fmt.Errorf("invalid configuration: durations must not be negative")
	}
	return nil
}

// envTransform ADDON_ARTIFACTS__MODEL__PATH -> artifacts.model.path
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func explicitlySet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
