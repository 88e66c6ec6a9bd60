package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"multicam/internal/protocol"
)

// heartbeatReadTimeout は停止要求を確認する間隔
const heartbeatReadTimeout = time.Second

// HeartbeatListener はカメラユニットからの HEARTBEAT データグラムを受信する
type HeartbeatListener struct {
	addr   string
	onBeat func(ip string)

	mu   sync.Mutex
	conn net.PacketConn

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewHeartbeatListener は新しいHeartbeatListenerを作成する
// onBeat は送信元IPアドレスを引数に呼ばれる
func NewHeartbeatListener(addr string, onBeat func(ip string)) *HeartbeatListener {
	return &HeartbeatListener{
		addr:   addr,
		onBeat: onBeat,
		stopCh: make(chan struct{}),
	}
}

// Start はUDPポートをバインドして受信を開始する
func (h *HeartbeatListener) Start(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", h.addr)
	if err != nil {
		return fmt.Errorf("生存通知ポートのバインドに失敗 (%s): %w", h.addr, err)
	}

	h.mu.Lock()
	h.conn = conn
	h.mu.Unlock()

	h.wg.Add(1)
	go h.receive(ctx, conn)

	log.Infof("生存通知の受信を開始しました: %s", conn.LocalAddr())
	return nil
}

// Addr はバインドしたアドレスを返す（開始前は nil）
func (h *HeartbeatListener) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil {
		return nil
	}
	return h.conn.LocalAddr()
}

// Stop は受信を停止する
func (h *HeartbeatListener) Stop() error {
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()
	if conn == nil {
		return nil
	}

	close(h.stopCh)
	err := conn.Close()
	h.wg.Wait()
	return err
}

func (h *HeartbeatListener) receive(ctx context.Context, conn net.PacketConn) {
	defer h.wg.Done()

	buf := make([]byte, 2048)
	for {
		select {
		case <-h.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(heartbeatReadTimeout))
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warnf("生存通知の受信に失敗しました: %v", err)
			continue
		}

		cmd, err := protocol.Decode(string(buf[:n]))
		if err != nil {
			log.WithField("from", from.String()).Debugf("生存通知以外のデータグラムを無視しました: %v", err)
			continue
		}
		if _, ok := cmd.(protocol.Heartbeat); !ok {
			continue
		}

		host, _, err := net.SplitHostPort(from.String())
		if err != nil {
			host = from.String()
		}
		h.onBeat(host)
	}
}
