package utils

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ParseDurationEnv reads a duration from an env value: Go syntax ("750ms",
// "5m") or a bare number of seconds, fractional allowed ("1.5"). Surrounding
// quotes are stripped. Negative values are rejected.
func ParseDurationEnv(s string) (time.Duration, error) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if s == "" {
		return 0, errors.New("empty duration")
	}

	var d time.Duration
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, fmt.Errorf("duration %q is not finite", s)
		}
		d = time.Duration(secs * float64(time.Second))
	} else if d, err = time.ParseDuration(s); err != nil {
		return 0, fmt.Errorf("duration %q: want 750ms, 5m or a number of seconds", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", s)
	}
	return d, nil
}

// ParseRedisURL splits a redis:// or rediss:// URL into address, password and DB index.
func ParseRedisURL(s string) (addr, password string, db int, err error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", "", 0, err
	}
	switch {
	case u.Scheme != "redis" && u.Scheme != "rediss":
		return "", "", 0, fmt.Errorf("redis url: scheme must be redis or rediss, got %q", u.Scheme)
	case u.Host == "":
		return "", "", 0, errors.New("redis url: missing host")
	}
	if u.User != nil {
		password, _ = u.User.Password()
	}
	if p := strings.Trim(u.Path, "/"); p != "" {
		if db, err = strconv.Atoi(p); err != nil || db < 0 {
			return "", "", 0, fmt.Errorf("redis url: db must be a non-negative integer, got %q", p)
		}
	}
	return u.Host, password, db, nil
}

// IsPGUndefinedTable reports whether err is PostgreSQL "relation does not exist" (code 42P01).
func IsPGUndefinedTable(err error) bool {
	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		return pge.Code == "42P01"
	}
	return false
}
