package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every tunable the engine and transport need. Timing
// constants that differed between historical deployments (promotion delay,
// call cadence) are env-driven with the defaults below.
type Config struct {
	Port           string
	DatabaseURL    string // empty => in-memory store
	AllowedOrigins []string

	Stakes             []int // default room tiers ensured on boot
	MaxPlayers         int   // default room capacity
	MinPlayers         int   // minimum players before a game may start
	AutoStartThreshold int   // player count that triggers the start countdown

	StartDelay           time.Duration // waiting->starting->active promotion delay
	CallWarmup           time.Duration // delay before the first number of a game
	CallInterval         time.Duration // period between subsequent numbers
	WinResetDelay        time.Duration // automatic reset delay after a win
	GhostCleanupInterval time.Duration
}

// Load reads .env (if present) and the environment into a Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, reading environment variables")
	}

	return &Config{
		Port:           getEnv("PORT", "4000"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		Stakes:             parseStakes(getEnv("DEFAULT_STAKES", "10,20,50,100")),
		MaxPlayers:         getEnvInt("MAX_PLAYERS", 100),
		MinPlayers:         getEnvInt("MIN_PLAYERS", 2),
		AutoStartThreshold: getEnvInt("AUTO_START_THRESHOLD", 2),

		StartDelay:           getEnvSeconds("START_DELAY", 10),
		CallWarmup:           getEnvSeconds("CALL_WARMUP", 3),
		CallInterval:         getEnvSeconds("CALL_INTERVAL", 5),
		WinResetDelay:        getEnvSeconds("WIN_RESET_DELAY", 10),
		GhostCleanupInterval: getEnvSeconds("GHOST_CLEANUP_INTERVAL", 60),
	}
}

// RequiredToStart is the player count at which a waiting room begins its
// start countdown. Never below MinPlayers.
func (c *Config) RequiredToStart() int {
	if c.AutoStartThreshold < c.MinPlayers {
		return c.MinPlayers
	}
	return c.AutoStartThreshold
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("[WARN] invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseStakes(raw string) []int {
	var stakes []int
	for _, p := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			continue
		}
		stakes = append(stakes, n)
	}
	if len(stakes) == 0 {
		stakes = []int{10, 20, 50, 100}
	}
	return stakes
}
