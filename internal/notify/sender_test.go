package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTP speaks just enough SMTP for net/smtp's client.
type fakeSMTP struct {
	ln net.Listener

	mu         sync.Mutex
	from       string
	rcpt       string
	data       string
	rejectRcpt bool
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	s := &fakeSMTP{ln: ln}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serve(conn)
		}
	}()
	return s
}

func (s *fakeSMTP) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTP) serve(conn net.Conn) {
	defer conn.Close()
	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 localhost ESMTP")

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			_ = tp.PrintfLine("250 localhost")
		case strings.HasPrefix(cmd, "MAIL FROM:"):
			s.mu.Lock()
			s.from = addrOf(line)
			s.mu.Unlock()
			_ = tp.PrintfLine("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO:"):
			s.mu.Lock()
			reject := s.rejectRcpt
			s.rcpt = addrOf(line)
			s.mu.Unlock()
			if reject {
				_ = tp.PrintfLine("550 no such user")
				continue
			}
			_ = tp.PrintfLine("250 OK")
		case cmd == "DATA":
			_ = tp.PrintfLine("354 go ahead")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.data = string(data)
			s.mu.Unlock()
			_ = tp.PrintfLine("250 OK")
		case cmd == "QUIT":
			_ = tp.PrintfLine("221 bye")
			return
		default:
			_ = tp.PrintfLine("502 not implemented")
		}
	}
}

func addrOf(line string) string {
	start := strings.Index(line, "<")
	end := strings.Index(line, ">")
	if start < 0 || end < start {
		return ""
	}
	return line[start+1 : end]
}

func TestSMTPSender_Send(t *testing.T) {
	srv := startFakeSMTP(t)

	sender := NewSMTPSender(SMTPConfig{
		Host:    "127.0.0.1",
		Port:    srv.port(),
		From:    "no-reply@example.com",
		Timeout: 2 * time.Second,
	})

	err := sender.Send(context.Background(), "jane@example.com", "Hello", "<p>hi</p>")
	require.NoError(t, err)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, "no-reply@example.com", srv.from)
	assert.Equal(t, "jane@example.com", srv.rcpt)
	assert.Contains(t, srv.data, "Subject: Hello")
	assert.Contains(t, srv.data, "To: jane@example.com")
	assert.Contains(t, srv.data, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, srv.data, "<p>hi</p>")
}

func TestSMTPSender_RejectedRecipient(t *testing.T) {
	srv := startFakeSMTP(t)
	srv.rejectRcpt = true

	sender := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: srv.port(), From: "no-reply@example.com", Timeout: 2 * time.Second})

	err := sender.Send(context.Background(), "ghost@example.com", "Hello", "body")
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "550")
}

func TestSMTPSender_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	sender := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: port, From: "a@example.com", Timeout: time.Second})

	err = sender.Send(context.Background(), "jane@example.com", "Hello", "body")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestSMTPSender_TimesOutOnSilentServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		// never greet
		time.Sleep(2 * time.Second)
		_ = conn.Close()
	}()

	sender := NewSMTPSender(SMTPConfig{
		Host:    "127.0.0.1",
		Port:    ln.Addr().(*net.TCPAddr).Port,
		From:    "a@example.com",
		Timeout: 150 * time.Millisecond,
	})

	start := time.Now()
	err = sender.Send(context.Background(), "jane@example.com", "Hello", "body")
	assert.ErrorIs(t, err, ErrTransport)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewSMTPSender_DefaultTimeout(t *testing.T) {
	assert.Equal(t, 10*time.Second, NewSMTPSender(SMTPConfig{}).cfg.Timeout)
}

func TestBuildMessage_StripsHeaderInjection(t *testing.T) {
	msg := string(buildMessage("a@example.com", "b@example.com", "Hi\r\nBcc: evil@example.com", "body"))

	assert.NotContains(t, msg, "\r\nBcc:")
	assert.Contains(t, msg, "Subject: HiBcc: evil@example.com\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nbody"))
}

func TestLogSender_Send(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLogSender(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, sender.Send(context.Background(), "jane@example.com", "Hello", "link"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "jane@example.com", entry["to"])
	assert.Equal(t, "Hello", entry["subject"])
	assert.Equal(t, "link", entry["body"])
}

func newTestResendClient(t *testing.T, handler http.HandlerFunc) *resend.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := resend.NewClient("re_test")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	return client
}

func TestResendSender_Send(t *testing.T) {
	var got map[string]any
	client := newTestResendClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`))
	})

	sender := NewResendSender(client, "no-reply@example.com")
	require.NoError(t, sender.Send(context.Background(), "jane@example.com", "Hello", "<p>hi</p>"))

	assert.Equal(t, "no-reply@example.com", got["from"])
	assert.Equal(t, []any{"jane@example.com"}, got["to"])
	assert.Equal(t, "Hello", got["subject"])
	assert.Equal(t, "<p>hi</p>", got["html"])
}

func TestResendSender_APIError(t *testing.T) {
	client := newTestResendClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid from field"}`))
	})

	err := NewResendSender(client, "bad").Send(context.Background(), "jane@example.com", "Hello", "body")
	assert.ErrorIs(t, err, ErrTransport)
}

