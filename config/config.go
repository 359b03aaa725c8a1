package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port           string
	PublicDir      string
	AllowedOrigins []string
	LogLevel       string
	LogPretty      bool

	UseMocks      bool
	RedisEndpoint string
	AWSRegion     string

	AdminJWTSecret string

	MaxRoomCapacity int
	MessageRate     float64
	MessageBurst    int
	LeaderboardSize int
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() *Config {
	return &Config{
		Port:            getEnv("PORT", "3000"),
		PublicDir:       getEnv("PUBLIC_DIR", "public"),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogPretty:       getEnvBool("LOG_PRETTY", true),
		UseMocks:        getEnvBool("USE_MOCKS", true),
		RedisEndpoint:   getEnv("REDIS_ENDPOINT", "localhost:6379"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		AdminJWTSecret:  getEnv("ADMIN_JWT_SECRET", ""),
		MaxRoomCapacity: getEnvInt("MAX_ROOM_CAPACITY", 10),
		MessageRate:     float64(getEnvInt("WS_MESSAGE_RATE", 50)),
		MessageBurst:    getEnvInt("WS_MESSAGE_BURST", 100),
		LeaderboardSize: getEnvInt("LEADERBOARD_SIZE", 10),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", val).Int("fallback", fallback).Msg("invalid integer in environment")
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Warn().Str("key", key).Str("value", val).Msg("invalid boolean in environment")
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
