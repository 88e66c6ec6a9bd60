package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// Sender はデータグラム1件を送信する
type Sender interface {
	Send(ctx context.Context, addr string, payload []byte) error
}

// UDPSender はUDPでデータグラムを送信する
type UDPSender struct {
	Timeout time.Duration
}

// NewUDPSender は新しいUDPSenderを作成する
func NewUDPSender(timeout time.Duration) *UDPSender {
	return &UDPSender{Timeout: timeout}
}

// Send は addr にデータグラムを1件送信する
func (s *UDPSender) Send(ctx context.Context, addr string, payload []byte) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp", addr)
	if err != nil {
		return fmt.Errorf("%s への接続に失敗: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("書き込み期限の設定に失敗: %w", err)
		}
	}

	n, err := conn.Write(payload)
	if err != nil {
		return fmt.Errorf("%s への送信に失敗: %w", addr, err)
	}
	if n != len(payload) {
		return fmt.Errorf("%s への送信が途中で終了しました (%d/%d bytes)", addr, n, len(payload))
	}
	return nil
}

// SentDatagram は MockSender が記録した送信内容
type SentDatagram struct {
	Addr    string
	Payload string
}

// MockSender はテストと実機なしの運用で使う送信実装
// 実際には送信せず、内容を記録する
type MockSender struct {
	mu       sync.Mutex
	sent     []SentDatagram
	failures int
	err      error
}

// NewMockSender は新しいMockSenderを作成する
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Send は送信内容を記録する。FailNext で指定した回数だけ失敗する
func (m *MockSender) Send(_ context.Context, addr string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failures > 0 {
		m.failures--
		if m.err != nil {
			return m.err
		}
		return errors.New("モック: 送信に失敗")
	}

	m.sent = append(m.sent, SentDatagram{Addr: addr, Payload: string(payload)})
	return nil
}

// FailNext は次の n 回の送信を err で失敗させる（nil の場合は既定のエラー）
func (m *MockSender) FailNext(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
	m.err = err
}

// Sent は記録された送信内容のコピーを返す
func (m *MockSender) Sent() []SentDatagram {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentDatagram, len(m.sent))
	copy(out, m.sent)
	return out
}

// Reset は記録を消去する
func (m *MockSender) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.failures = 0
	m.err = nil
}
