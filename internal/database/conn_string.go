package database

import (
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/sqlprobe/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	// Userinfo escaping, not query escaping: pgx reads '+' back literally.
	user := url.User(cfg.User)
	if cfg.Password != "" {
		user = url.UserPassword(cfg.User, cfg.Password)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// Redacted returns the connection string with the password masked, for logging.
func Redacted(cfg config.DBConfig) string {
	masked := cfg
	if masked.Password != "" {
		masked.Password = "xxxxx"
	}
	return BuildConnString(masked)
}
