// Package netutil decides which failed Telegram API calls may be repeated.
package netutil

import (
	"errors"
	"net"
	"net/url"
	"path"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Failure kinds reported by Kind.
const (
	KindTimeout = "timeout"
	KindDNS     = "dns"
	KindDial    = "dial"
	KindFlood   = "flood"
	KindHTTP4xx = "http_4xx"
	KindHTTP5xx = "http_5xx"
	KindUnknown = "unknown"
)

// Kind classifies err for logs and retry decisions.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return KindDNS
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindDial
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var floodErr tele.FloodError
	if errors.As(err, &floodErr) {
		return KindFlood
	}
	switch code := statusCode(err); {
	case code >= 500:
		return KindHTTP5xx
	case code >= 400:
		return KindHTTP4xx
	}
	return KindUnknown
}

// Unsent reports whether err proves the request never reached Telegram.
func Unsent(err error) bool {
	switch Kind(err) {
	case KindDNS, KindDial:
		return true
	}
	return false
}

// Transient reports whether a repeated call may succeed.
func Transient(err error) bool {
	switch Kind(err) {
	case KindDNS, KindDial, KindTimeout, KindHTTP5xx:
		return true
	}
	return false
}

// Idempotent reports whether repeating the API method cannot create a second
// message. Method names may be given as a bare name or as a request path.
func Idempotent(method string) bool {
	name := strings.ToLower(path.Base(method))
	for _, prefix := range []string{"send", "forward", "copy"} {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	return name != "" && name != "." && name != "/"
}

// ShouldRetry reports whether a failed call to method may be repeated. Calls
// that post messages are repeated only when the request never left the host,
// so a lost response cannot duplicate a channel post.
func ShouldRetry(method string, err error) bool {
	if !Transient(err) {
		return false
	}
	return Idempotent(method) || Unsent(err)
}

func statusCode(err error) int {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return 0
	}
	// telebot formats API failures as "telegram: <description> (<code>)".
	msg := err.Error()
	open, end := strings.LastIndex(msg, "("), strings.LastIndex(msg, ")")
	if open < 0 || end <= open+1 {
		return 0
	}
	code, convErr := strconv.Atoi(strings.TrimSpace(msg[open+1 : end]))
	if convErr != nil {
		return 0
	}
	return code
}
