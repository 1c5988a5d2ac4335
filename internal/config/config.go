package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits list-valued variables
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	// Booking configuration. Inventory is injected here rather than
	// compiled into a handler: TABLE_INVENTORY holds "size:capacity"
	// pairs, ALLOWED_HOURS the enumerated bookable hours.
	InventorySpec string // TABLE_INVENTORY, e.g. "2:4,3:3,4:5,5:3,6:6"
	AllowedHours  []int  // ALLOWED_HOURS, e.g. "10,11,...,22" (empty = default 10..22)
	AdminPassword string // initial ADMIN account password (optional)
}

// defaultInventory mirrors the table stock of the original deployment and
// is used when TABLE_INVENTORY is not set.
const defaultInventory = "2:4,3:3,4:5,5:3,6:6"

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		InventorySpec:  getenvDefault("TABLE_INVENTORY", defaultInventory),
		AllowedHours:   parseHours(os.Getenv("ALLOWED_HOURS")),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseHours converts a comma-separated hour list into ints. Invalid
// entries are fatal so a typo cannot silently shrink the bookable hours.
// An empty value returns nil, which callers treat as "use defaults".
func parseHours(s string) []int {
	if s == "" {
		return nil
	}
	var hours []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil || h < 0 || h > 23 {
			log.Fatalf("invalid hour in ALLOWED_HOURS: %q", part)
		}
		hours = append(hours, h)
	}
	return hours
}
