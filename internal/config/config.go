// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/go-playground/validator"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек бота.
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	StoragePath     string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"database.db" validate:"required"`
	Telegram        `yaml:"telegram"`
	LLM             `yaml:"llm"`
	HealthServer    `yaml:"health_server"`
	RedisConnection `yaml:"redis_connection"`
}

// Telegram структура для настройки подключения к Telegram Bot API.
type Telegram struct {
	Token       string `yaml:"token" env:"TELEGRAM_TOKEN" env-required:"true" validate:"required"`
	PollTimeout int    `yaml:"poll_timeout" env-default:"30"` // секунды long polling
}

// LLM структура для настройки клиента инференс-API.
type LLM struct {
	APIKey       string        `yaml:"api_key" env:"LLM_API_KEY" env-required:"true" validate:"required"`
	APIURL       string        `yaml:"api_url" env:"LLM_API_URL" env-default:"https://api.deepseek.com/chat/completions" validate:"required,url"`
	Model        string        `yaml:"model" env:"LLM_MODEL" env-default:"deepseek-chat" validate:"required"`
	SystemPrompt string        `yaml:"system_prompt" env:"LLM_SYSTEM_PROMPT" validate:"required"`
	MaxTokens    int           `yaml:"max_tokens" env-default:"150"`
	Temperature  float64       `yaml:"temperature" env-default:"0.8"`
	Timeout      time.Duration `yaml:"timeout" env-default:"30s"`
}

// HealthServer структура для настройки сервера liveness-проверок.
type HealthServer struct {
	Address     string        `yaml:"address" env:"HEALTH_ADDRESS" env-default:":8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
// Если адрес пуст, кеш отключён и проверки идут напрямую в хранилище.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDR"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и валидирует его.
// При любой ошибке процесс завершается: без токена и промпта бот бесполезен.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		log.Fatalf("invalid config: %s", err)
	}
	return &cfg
}
