package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stalledTelegram answers getMe and never answers sendMessage.
func stalledTelegram(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bottest-token/getMe":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"b","username":"remind_bot"}}`))
		default:
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewBot_SendIsBoundedByTimeout(t *testing.T) {
	srv := stalledTelegram(t)

	bot, err := newBot("test-token", srv.URL+"/bot%s/%s", 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "remind_bot", bot.Self.UserName)

	start := time.Now()
	_, err = bot.Send(tgbotapi.NewMessage(9, "Ann, don't forget: buy milk"))
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewBot_BadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := newBot("nope", srv.URL+"/bot%s/%s", time.Second)
	assert.Error(t, err)
}
