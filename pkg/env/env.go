// Package env loads the process environment shared by all tagback
// programs: optional .env files and the board identity.
package env

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	"github.com/joho/godotenv"
)

// appID scopes the machine ID so the raw /etc/machine-id never leaves
// the board.
const appID = "tagback"

// Files lists the dotenv files loaded at start up. Variables already
// set in the environment win.
var Files = []string{".env", "/etc/tagback/env"}

func init() {
	for _, fn := range Files {
		if _, err := os.Stat(fn); err != nil {
			continue
		}
		if err := godotenv.Load(fn); err != nil {
			glog.Warningf("load %s: %v", fn, err)
		}
	}
}

// MachineID retrieves a stable ID identifying the board, falling back
// to the host name when no machine ID is available.
func MachineID() string {
	id, err := machineid.ProtectedID(appID)
	if err == nil && len(id) >= 12 {
		return id[:12]
	}
	if host, herr := os.Hostname(); herr == nil && host != "" {
		return host
	}
	glog.Warningf("machine id unavailable: %v", err)
	return "reader"
}

// String returns the value of a TAGBACK_ variable or def.
func String(name, def string) string {
	if val, ok := os.LookupEnv("TAGBACK_" + name); ok && val != "" {
		return val
	}
	return def
}

// Bool parses a TAGBACK_ variable as bool, keeping def if unset or invalid.
func Bool(name string, def bool) bool {
	val := String(name, "")
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		glog.Warningf("TAGBACK_%s: %v", name, err)
		return def
	}
	return b
}

// Duration parses a TAGBACK_ variable as time.Duration, keeping def if
// unset or invalid.
func Duration(name string, def time.Duration) time.Duration {
	val := String(name, "")
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		glog.Warningf("TAGBACK_%s: %v", name, err)
		return def
	}
	return d
}
