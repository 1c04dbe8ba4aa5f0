package uplink

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/tagback/pkg/console"
	fx "github.com/robotalks/tagback/pkg/framework"
	"github.com/robotalks/tagback/pkg/reader"
	"github.com/robotalks/tagback/pkg/tag"
)

type requestLog struct {
	lock sync.Mutex
	reqs []string
}

func (l *requestLog) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l.lock.Lock()
		l.reqs = append(l.reqs, r.Method+" "+r.URL.RequestURI())
		l.lock.Unlock()
		w.WriteHeader(status)
		w.Write([]byte("ok, logged"))
	}
}

func (l *requestLog) get() []string {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]string(nil), l.reqs...)
}

func TestForwarderURL(t *testing.T) {
	f := NewForwarder("")
	assert.Equal(t, "http://192.168.1.100:80/log_uid.php?uid=DEADBEEF", f.URL(tag.UID{0xDE, 0xAD, 0xBE, 0xEF}))
	f.BaseURL = "http://logger.local/"
	assert.Equal(t, "http://logger.local/log_uid.php?uid=04A1B2C3D4E5F6", f.URL(tag.MustParseUID("04a1b2c3d4e5f6")))
}

func TestForwarderSend(t *testing.T) {
	var log requestLog
	srv := httptest.NewServer(log.handler(http.StatusOK))
	defer srv.Close()

	f := NewForwarder(srv.URL)
	require.NoError(t, f.Send(context.Background(), tag.UID{0x01, 0x0A, 0xFF, 0x00}))
	assert.Equal(t, []string{"GET /log_uid.php?uid=010AFF00"}, log.get())
}

func TestForwarderStatus(t *testing.T) {
	var log requestLog
	srv := httptest.NewServer(log.handler(http.StatusInternalServerError))
	defer srv.Close()

	err := NewForwarder(srv.URL).Send(context.Background(), tag.UID{1, 2, 3, 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))
}

func TestForwarderTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	f := NewForwarder(srv.URL)
	f.Timeout = 20 * time.Millisecond
	start := time.Now()
	assert.Error(t, f.Send(context.Background(), tag.UID{1, 2, 3, 4}))
	assert.True(t, time.Since(start) < 5*time.Second)
}

func TestControllerIgnoresFailures(t *testing.T) {
	var log requestLog
	srv := httptest.NewServer(log.handler(http.StatusOK))
	srvURL := srv.URL
	var out bytes.Buffer

	ctl := NewController(NewForwarder(srvURL))
	ctl.Console = console.New(&out)
	loop := fx.NewLoop().Add(ctl)

	loop.PostEvent(&reader.CardEvent{UID: tag.UID{0xDE, 0xAD, 0xBE, 0xEF}})
	loop.PostEvent(&reader.PresenceEvent{Present: true})
	loop.RunIteration(context.Background(), time.Now())
	assert.Equal(t, []string{"GET /log_uid.php?uid=DEADBEEF"}, log.get())

	// server gone: the send fails and the loop keeps going.
	srv.Close()
	ctl.Forwarder.Timeout = 100 * time.Millisecond
	loop.PostEvent(&reader.CardEvent{UID: tag.UID{1, 2, 3, 4}})
	loop.PostEvent(&reader.CardEvent{UID: tag.UID{5, 6, 7, 8}})
	left := loop.RunIteration(context.Background(), time.Now())
	assert.Len(t, left, 2)
	assert.Equal(t, "UID: DEADBEEF\nUID: 01020304\nUID: 05060708\n", out.String())
}
