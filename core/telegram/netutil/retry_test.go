package netutil

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestKind(t *testing.T) {
	dial := &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}}
	readTimeout := &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: &net.OpError{Op: "read", Err: timeoutErr{}}}

	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, KindDial, Kind(fmt.Errorf("telebot: %w", dial)))
	assert.Equal(t, KindDNS, Kind(&net.DNSError{Err: "no such host", Name: "api.telegram.org"}))
	assert.Equal(t, KindTimeout, Kind(readTimeout))
	assert.Equal(t, KindFlood, Kind(tele.FloodError{RetryAfter: 3}))
	assert.Equal(t, KindHTTP4xx, Kind(errors.New("telegram: Bad Request: chat not found (400)")))
	assert.Equal(t, KindHTTP5xx, Kind(errors.New("telegram: Internal Server Error (502)")))
	assert.Equal(t, KindUnknown, Kind(errors.New("boom")))
}

func TestIdempotent(t *testing.T) {
	assert.False(t, Idempotent("sendVoice"))
	assert.False(t, Idempotent("/bot123:abc/sendMessage"))
	assert.False(t, Idempotent("forwardMessage"))
	assert.True(t, Idempotent("editMessageCaption"))
	assert.True(t, Idempotent("/bot123:abc/deleteMessage"))
	assert.True(t, Idempotent("answerInlineQuery"))
	assert.False(t, Idempotent(""))
}

func TestShouldRetryNeverRepostsAfterLostResponse(t *testing.T) {
	dial := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	readTimeout := &net.OpError{Op: "read", Err: timeoutErr{}}

	assert.True(t, ShouldRetry("sendVoice", dial))
	assert.False(t, ShouldRetry("sendVoice", readTimeout))
	assert.True(t, ShouldRetry("editMessageCaption", readTimeout))
	assert.True(t, ShouldRetry("deleteMessage", errors.New("telegram: Bad Gateway (502)")))
	assert.False(t, ShouldRetry("deleteMessage", errors.New("telegram: Bad Request: message to delete not found (400)")))
	assert.False(t, ShouldRetry("getUpdates", nil))
}
