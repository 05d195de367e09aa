package app

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

func getenvTrim(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := getenvTrim(key); value != "" {
			return value
		}
	}
	return ""
}

// envAddr returns the listen address set in the environment, or "".
func envAddr() string {
	if addr := getenvTrim("COURSEBOARD_ADDR"); addr != "" {
		return addr
	}
	if port := firstEnv("COURSEBOARD_PORT", "PORT"); port != "" {
		if !validPort(port) {
			log.Warnf("Invalid port %q; ignoring", port)
			return ""
		}
		return ":" + port
	}
	return ""
}

func envInt(key string, fallback int) int {
	raw := getenvTrim(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		log.Warnf("Invalid %s %q; keeping %d", key, raw, fallback)
		return fallback
	}
	return value
}

func validPort(port string) bool {
	value, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return value > 0 && value <= 65535
}

// normalizeAddr turns addr into a listen address and the URL to log.
func normalizeAddr(addr string) (string, string) {
	normalized := strings.TrimSpace(addr)
	if normalized == "" {
		normalized = defaultAddr
	}

	if _, err := strconv.Atoi(normalized); err == nil {
		normalized = ":" + normalized
	}

	host, port, err := net.SplitHostPort(normalized)
	if err != nil {
		if !strings.Contains(normalized, ":") {
			host = normalized
			port = "8080"
			normalized = net.JoinHostPort(host, port)
		} else {
			log.Warnf("Invalid listen address %q; falling back to %s", addr, defaultAddr)
			host = ""
			port = "8080"
			normalized = defaultAddr
		}
	}

	displayHost := host
	if displayHost == "" || displayHost == "0.0.0.0" || displayHost == "::" {
		displayHost = "localhost"
	}

	logURL := fmt.Sprintf("http://%s:%s", displayHost, port)
	return normalized, logURL
}
