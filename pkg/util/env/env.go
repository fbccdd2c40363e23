// Package env reads typed values from environment variables.
package env

import (
	"os"
	"strconv"
	"time"

	"github.com/skycoin/skycoin/src/util/logging"
)

var log = logging.MustGetLogger("env")

// UInt32 returns parsed uint32 value of environment variable
func UInt32(name string, defvalue uint32) uint32 {
	if envVar, ok := os.LookupEnv(name); ok {
		value, err := strconv.ParseUint(envVar, 10, 32)
		if err == nil {
			return uint32(value)
		}
		log.WithError(err).Warnf("Ignoring %s", name)
	}
	return defvalue
}

// Duration returns parsed time.Duration value of environment variable
func Duration(name string, defvalue time.Duration) time.Duration {
	if envVar, ok := os.LookupEnv(name); ok {
		value, err := time.ParseDuration(envVar)
		if err == nil {
			return value
		}
		log.WithError(err).Warnf("Ignoring %s", name)
	}
	return defvalue
}
