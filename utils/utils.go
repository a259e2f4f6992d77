package utils

import (
	"os"
	"strconv"
	"strings"
)

// TrimSpaceNewline deletes space character and newline character(CR/LF)
func TrimSpaceNewline(str string) string {
	str = strings.TrimSpace(str)
	return strings.Trim(str, "\r\n")
}

func LookupEnv(key, defaultValue string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultValue
}

// LookupEnvBool returns defaultValue when the variable is unset or not a boolean
func LookupEnvBool(key string, defaultValue bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return b
}

// IsRemote reports whether src looks like a URL rather than a local path
func IsRemote(src string) bool {
	return strings.Contains(src, "://")
}
