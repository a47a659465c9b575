package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
    "strings"  // strings splits comma separated lists
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers, secrets and URLs, ints for
// durations and costs.
type Config struct {
    Env            string   // application environment (e.g. "dev", "prod")
    Port           string   // HTTP port to listen on
    DBUser         string   // database username
    DBPass         string   // database password (optional)
    DBHost         string   // database host address
    DBPort         string   // database port number
    DBName         string   // database name
    JWTSecret      string   // secret used to sign JWTs
    AccessTTLMin   int      // access token time-to-live in minutes
    RefreshTTLDays int      // refresh token time-to-live in days
    BcryptCost     int      // bcrypt cost for password hashing
    MPAccessToken  string   // MercadoPago access token for the gateway client
    MPBaseURL      string   // gateway base URL; overridable for sandbox and tests
    WebhookURL     string   // public notification URL passed on each preference
    SuccessURL     string   // frontend redirect after an approved checkout
    FailureURL     string   // frontend redirect after a rejected checkout
    PendingURL     string   // frontend redirect while the gateway decides
    CORSOrigins    []string // allowed CORS origins (comma separated env value)
    MediaDir       string   // root directory for uploaded property files
    LogLevel       string   // zap log level (debug/info/warn/error)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Gateway redirect
// URLs stay optional so the service can boot in environments where the
// checkout flow is never exercised.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),
        Port:           must("APP_PORT"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"), // empty password allowed
        DBHost:         must("DB_HOST"),
        DBPort:         must("DB_PORT"),
        DBName:         must("DB_NAME"),
        JWTSecret:      must("JWT_SECRET"),
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:     mustInt("BCRYPT_COST"),
        MPAccessToken:  must("MERCADOPAGO_ACCESS_TOKEN"),
        MPBaseURL:      getenvDefault("MERCADOPAGO_BASE_URL", "https://api.mercadopago.com"),
        WebhookURL:     os.Getenv("MERCADOPAGO_WEBHOOK_URL"),
        SuccessURL:     os.Getenv("FRONTEND_SUCCESS_URL"),
        FailureURL:     os.Getenv("FRONTEND_ERROR_URL"),
        PendingURL:     os.Getenv("FRONTEND_PENDING_URL"),
        CORSOrigins:    splitList(getenvDefault("CORS_ALLOWED_ORIGINS", "*")),
        MediaDir:       getenvDefault("MEDIA_DIR", "media"),
        LogLevel:       getenvDefault("LOG_LEVEL", "info"),
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
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// getenvDefault returns the env value or a default when unset/empty.
func getenvDefault(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

// splitList turns a comma separated env value into a trimmed slice,
// discarding empty entries.
func splitList(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
