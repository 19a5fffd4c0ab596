package env

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nantokaworks/betboard/internal/shared/logger"
	"go.uber.org/zap"
)

// Env holds all configuration read at bootstrap. Nothing here is
// consulted again after startup; runtime state lives in the stores.
type Env struct {
	ServerPort      int
	DBPath          string
	DefaultPrize    string
	OperatorContact string
	OperatorIDs     []string
	DebugMode       bool
}

var Value Env

// LoadEnv reads .env (if present) and the process environment into Value.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	Value = Env{
		ServerPort:      envInt("SERVER_PORT", 8080),
		DBPath:          envStr("DB_PATH", "./betboard.db"),
		DefaultPrize:    envStr("DEFAULT_PRIZE", "100,000 points"),
		OperatorContact: envStr("OPERATOR_CONTACT", "@operator"),
		OperatorIDs:     envList("OPERATOR_IDS"),
		DebugMode:       envStr("DEBUG_MODE", "false") == "true",
	}

	if len(Value.OperatorIDs) == 0 {
		logger.Warn("OPERATOR_IDS is empty; no privileged commands will be accepted until an operator is bootstrapped")
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		logger.Warn("Invalid integer in environment, using fallback",
			zap.String("key", key), zap.String("value", v))
	}
	return fallback
}

// envList parses a comma-separated list, dropping empty entries.
func envList(key string) []string {
	raw := os.Getenv(key)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
