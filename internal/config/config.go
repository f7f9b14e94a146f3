package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Strings for identifiers and secrets, ints
// for durations and costs.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    AccessTTLHours int    // access token time-to-live in hours
    BcryptCost     int    // bcrypt cost for password hashing
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
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
        AccessTTLHours: mustInt("ACCESS_TOKEN_TTL_HOURS"),
        BcryptCost:     mustInt("BCRYPT_COST"),
    }
}

// MailConfig carries SMTP and chat-webhook settings for the notification
// jobs.  All fields are optional: when the SMTP host or the webhook URL is
// empty the corresponding delivery channel is silently disabled, so the
// worker can run in environments without outbound mail.
type MailConfig struct {
    SMTPHost       string
    SMTPPort       string
    SMTPUsername   string
    SMTPPassword   string
    FromAddress    string
    ChatWebhookURL string
}

// LoadMailConfig reads the mail settings.  Nothing here is required; the
// zero value disables sending.
func LoadMailConfig() MailConfig {
    from := os.Getenv("MAIL_FROM")
    if from == "" {
        from = os.Getenv("SMTP_USERNAME")
    }
    return MailConfig{
        SMTPHost:       os.Getenv("SMTP_HOST"),
        SMTPPort:       getenv("SMTP_PORT", "587"),
        SMTPUsername:   os.Getenv("SMTP_USERNAME"),
        SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
        FromAddress:    from,
        ChatWebhookURL: os.Getenv("GCHAT_WEBHOOK_URL"),
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
