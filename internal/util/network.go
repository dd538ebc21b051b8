package util

import (
	"net"
	"strconv"
	"strings"
)

// SplitHostPort splits a network address into host and port.
// Unlike net.SplitHostPort, this handles addresses without ports.
func SplitHostPort(addr string) (host string, port int, err error) {
	h, p, splitErr := net.SplitHostPort(addr)
	if splitErr == nil {
		portNum, parseErr := strconv.Atoi(p)
		if parseErr != nil {
			return "", 0, parseErr
		}
		return h, portNum, nil
	}

	if strings.Contains(splitErr.Error(), "missing port") {
		return addr, 0, nil
	}

	return "", 0, splitErr
}

// IsLoopbackAddress reports whether addr names the loopback interface.
// Unspecified addresses (0.0.0.0, ::) are not loopback.
func IsLoopbackAddress(addr string) bool {
	host, _, err := SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "" {
		return false
	}

	if strings.EqualFold(host, "localhost") {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}
