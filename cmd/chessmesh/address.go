package main

import (
	"net"
	"strconv"
	"strings"

	"github.com/chessmesh/chessmesh/chesserr"
)

// ValidatePeerAddress checks a CLI-supplied peer address before it ever
// reaches client.Connect, grounded on the original CLI's validate_peer_address:
// distinguish a missing port, a trailing colon, and an unresolvable host so
// the operator gets a remediation hint instead of a raw dial error.
func ValidatePeerAddress(address string) (string, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return "", chesserr.New(chesserr.KindInvalidData, "address cannot be empty; use a format like 127.0.0.1:7890")
	}

	host, port, err := net.SplitHostPort(trimmed)
	if err != nil {
		if strings.HasSuffix(trimmed, ":") {
			return "", chesserr.New(chesserr.KindInvalidData, "%q is missing a port number after ':'; use a format like 127.0.0.1:7890", trimmed).
				WithField("address", trimmed)
		}
		if !strings.Contains(trimmed, ":") {
			return "", chesserr.New(chesserr.KindInvalidData, "%q is missing a port number; use a format like 127.0.0.1:7890", trimmed).
				WithField("address", trimmed)
		}
		return "", chesserr.Wrap(chesserr.KindInvalidData, err, "%q is not a valid host:port address", trimmed).
			WithField("address", trimmed)
	}

	if host == "" {
		return "", chesserr.New(chesserr.KindInvalidData, "%q is missing a host; use a format like 127.0.0.1:7890", trimmed).
			WithField("address", trimmed)
	}
	if n, err := strconv.ParseUint(port, 10, 16); err != nil || n == 0 {
		return "", chesserr.New(chesserr.KindInvalidData, "%q is not a valid port number", port).
			WithField("address", trimmed).WithField("port", port)
	}

	if net.ParseIP(host) == nil {
		if _, err := net.LookupHost(host); err != nil {
			return "", chesserr.Wrap(chesserr.KindInvalidData, err, "could not resolve host %q in %q", host, trimmed).
				WithField("address", trimmed).WithField("host", host)
		}
	}

	return trimmed, nil
}
