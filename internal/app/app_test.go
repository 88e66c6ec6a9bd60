package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"multicam/internal/camera"
	"multicam/internal/config"
	"multicam/internal/protocol"
	"multicam/internal/transport"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Network.Mock = true
	cfg.Network.HeartbeatListen = "127.0.0.1:0"
	cfg.Network.HeartbeatTimeout = 200 * time.Millisecond
	cfg.Network.ScanInterval = 20 * time.Millisecond
	cfg.Store.Path = filepath.Join(t.TempDir(), "multicam.db")

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func TestApp_CommandReachesSender(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer a.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/cameras/rep1/commands/start_stream", nil)
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("予期しないステータスコード: got %d (%s)", w.Code, w.Body.String())
	}

	flushCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := a.dispatcher.Flush(flushCtx); err != nil {
		t.Fatal(err)
	}

	sent := a.sender.(*transport.MockSender).Sent()
	if len(sent) != 1 {
		t.Fatalf("Expected 1 datagram, got %d", len(sent))
	}
	if sent[0].Addr != "192.168.0.201:5004" || sent[0].Payload != protocol.Encode(protocol.StartStream{}) {
		t.Errorf("unexpected datagram: %+v", sent[0])
	}
}

func TestApp_CaptureReleasedBySendResult(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer a.Close()

	if err := a.manager.Capture(ctx, "rep2"); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cam, _ := a.manager.GetCamera("rep2"); cam.State == camera.StateIdle {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("capture state was not released after the command was sent")
}

func TestApp_HeartbeatTimeout(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer a.Close()

	// rep8 はマスターと同じ筐体 (127.0.0.1)
	conn, err := net.Dial("udp", a.heartbeat.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(protocol.Encode(protocol.Heartbeat{}))); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cam, _ := a.manager.GetCamera("rep8"); !cam.LastSeen.IsZero() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cam, _ := a.manager.GetCamera("rep8")
	if cam.LastSeen.IsZero() {
		t.Fatal("heartbeat was not recorded")
	}

	// 生存通知が途絶えるとオフラインになる
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cam, _ := a.manager.GetCamera("rep8"); cam.State == camera.StateOffline {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("camera did not go offline after heartbeats stopped")
}

func TestApp_SettingsPersistAcrossRestart(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := a.manager.Rename(ctx, "rep3", "搬入口"); err != nil {
		t.Fatal(err)
	}
	path := a.config.Store.Path
	a.Close()

	cfg := config.Default()
	cfg.Network.Mock = true
	cfg.Network.HeartbeatListen = "127.0.0.1:0"
	cfg.Store.Path = path
	b, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if cam, _ := b.manager.GetCamera("rep3"); cam.Name != "搬入口" {
		t.Errorf("name = %q, want 搬入口", cam.Name)
	}
}
