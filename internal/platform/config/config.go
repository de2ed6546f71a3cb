package config

import (
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var portCmd = flag.Int("port", 0, "HTTP server port (overrides HTTP_PORT)")

const (
	defaultDataFile = "example.db"
	defaultHttpHost = "0.0.0.0"
	defaultHttpPort = 3000
)

type Config struct {
	DataFile       string
	ServerHost     string
	ServerPort     int
	ZmqApiPort     int
	ChangeFeedPort int
	LogLevel       string
	LogFormat      string
}

// LoadConfig reads .env when present, then the environment, then flags.
func LoadConfig() Config {
	godotenv.Load(".env")
	port := getInt("HTTP_PORT", defaultHttpPort)
	if portCmd != nil && *portCmd > 0 {
		port = *portCmd
	}
	return Config{
		DataFile:       getString("DATA_FILE", defaultDataFile),
		ServerHost:     getString("HTTP_HOST", defaultHttpHost),
		ServerPort:     port,
		ZmqApiPort:     getInt("ZMQ_API_PORT", 0),
		ChangeFeedPort: getInt("CHANGE_FEED_PORT", 0),
		LogLevel:       getString("LOG_LEVEL", "info"),
		LogFormat:      getString("LOG_FORMAT", "logfmt"),
	}
}

func getString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
