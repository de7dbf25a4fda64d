package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types

    "github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  The single JWTSecret signs and verifies
// both access tokens and check-in tokens; there is deliberately no
// second verification secret.
type Config struct {
    Env               string // application environment (e.g. "dev", "prod")
    Port              string // HTTP port to listen on
    BaseURL           string // public base URL used when building check-in URLs
    DBUser            string // database username
    DBPass            string // database password (optional)
    DBHost            string // database host address
    DBPort            string // database port number
    DBName            string // database name
    DBMaxOpenConns    int    // connection pool: max open connections
    DBMaxIdleConns    int    // connection pool: max idle connections
    DBConnMaxLifeMin  int    // connection pool: max connection lifetime in minutes
    JWTSecret         string // secret used to sign and verify all JWTs
    AccessTTLMin      int    // access token time-to-live in minutes
    RefreshTTLDays    int    // refresh token time-to-live in days
    CheckinTTLDays    int    // check-in token time-to-live in days
    BcryptCost        int    // bcrypt cost for password hashing
    MidtransServerKey string // Midtrans server key used for Snap and signature checks
    MidtransProd      bool   // true to hit the Midtrans production environment
}

// Load reads configuration values from environment variables and returns
// a Config.  A .env file in the working directory is loaded first if it
// exists.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    _ = godotenv.Load() // best effort; real environments set variables directly
    return Config{
        Env:               must("APP_ENV"),
        Port:              must("APP_PORT"),
        BaseURL:           must("APP_BASE_URL"),
        DBUser:            must("DB_USER"),
        DBPass:            os.Getenv("DB_PASS"), // empty allowed
        DBHost:            must("DB_HOST"),
        DBPort:            must("DB_PORT"),
        DBName:            must("DB_NAME"),
        DBMaxOpenConns:    intOr("DB_MAX_OPEN_CONNS", 25),
        DBMaxIdleConns:    intOr("DB_MAX_IDLE_CONNS", 25),
        DBConnMaxLifeMin:  intOr("DB_CONN_MAX_LIFETIME_MIN", 30),
        JWTSecret:         must("JWT_SECRET"),
        AccessTTLMin:      mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays:    mustInt("REFRESH_TOKEN_TTL_DAYS"),
        CheckinTTLDays:    intOr("CHECKIN_TOKEN_TTL_DAYS", 30),
        BcryptCost:        mustInt("BCRYPT_COST"),
        MidtransServerKey: must("MIDTRANS_SERVER_KEY"),
        MidtransProd:      envBool("MIDTRANS_PRODUCTION", false),
    }
}

// must retrieves the value of a required environment variable.  If the
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

// intOr reads an optional integer variable, falling back to def when the
// variable is unset or malformed.
func intOr(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        return def
    }
    return n
}
