package config // package config loads application configuration from environment variables

import (
    "net"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
    "github.com/sirupsen/logrus"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced at load time; the
// rest fall back to defaults suitable for local development.
type Config struct {
    Env            string        // application environment (e.g. "dev", "prod")
    Port           string        // HTTP port to listen on
    DBUser         string        // database username
    DBPass         string        // database password (optional)
    DBHost         string        // database host address
    DBPort         string        // database port number
    DBName         string        // database name
    SecretKey      string        // key used to sign session cookies
    BcryptCost     int           // bcrypt cost for password hashing
    SessionTTL     time.Duration // session lifetime; zero keeps a browser-session cookie
    CSRFEnabled    bool          // protect forms with a CSRF token
    LogLevel       string        // logrus level name
    LogFormat      string        // "text" or "json"
    StaticDir      string        // directory served under /static
    RabbitMQURL    string        // broker for activity events; empty disables publishing
    ActivityLogDir string        // where consume-events appends activity.log
    TrustedProxies []*net.IPNet  // proxies allowed to set X-Forwarded-For; empty trusts none
}

// Load reads a .env file when present and then builds a Config from the
// environment.  Missing required variables stop the program.
func Load() Config {
    _ = godotenv.Load() // .env is optional; real environment wins

    return Config{
        Env:            must("APP_ENV"),
        Port:           must("APP_PORT"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"),
        DBHost:         must("DB_HOST"),
        DBPort:         must("DB_PORT"),
        DBName:         must("DB_NAME"),
        SecretKey:      must("SECRET_KEY"),
        BcryptCost:     envInt("BCRYPT_COST", 12),
        SessionTTL:     envDur("SESSION_TTL", 0),
        CSRFEnabled:    envBool("CSRF_ENABLED", true),
        LogLevel:       envStr("LOG_LEVEL", "info"),
        LogFormat:      envStr("LOG_FORMAT", "text"),
        StaticDir:      envStr("STATIC_DIR", "static"),
        RabbitMQURL:    os.Getenv("RABBITMQ_URL"),
        ActivityLogDir: envStr("ACTIVITY_LOG_DIR", "logs"),
        TrustedProxies: parseCIDRs(os.Getenv("TRUSTED_PROXIES")),
    }
}

// IsProd reports whether cookies should be marked Secure.
func (c Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        logrus.Fatalf("missing required env var: %s", key)
    }
    return v
}

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    switch v {
    case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
        return true
    case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if dur, err := time.ParseDuration(v); err == nil {
        return dur
    }
    return d
}

// parseCIDRs reads a comma separated list of CIDR ranges.  A bare IP is taken
// as a single host; malformed entries are logged and skipped.
func parseCIDRs(s string) []*net.IPNet {
    var out []*net.IPNet
    for _, p := range strings.Split(s, ",") {
        p = strings.TrimSpace(p)
        if p == "" {
            continue
        }
        if !strings.Contains(p, "/") {
            if ip := net.ParseIP(p); ip != nil && ip.To4() != nil {
                p += "/32"
            } else {
                p += "/128"
            }
        }
        _, n, err := net.ParseCIDR(p)
        if err != nil {
            logrus.Warnf("ignoring TRUSTED_PROXIES entry %q: %v", p, err)
            continue
        }
        out = append(out, n)
    }
    return out
}
