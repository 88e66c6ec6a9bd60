package camera

import (
	"errors"
	"fmt"
	"sync"

	"multicam/internal/protocol"
	"multicam/internal/transport"
)

var _ Manager = (*DefaultCameraManager)(nil)

// EnqueuedCommand は MockTransport が受け取ったコマンド
type EnqueuedCommand struct {
	ID       string
	CameraID string
	Addr     string
	Command  protocol.Command
	Priority transport.Priority
}

// MockTransport はテスト用の送信キュー実装
type MockTransport struct {
	mu         sync.Mutex
	commands   []EnqueuedCommand
	seq        int
	shouldFail bool
}

// NewMockTransport は新しいMockTransportを作成する
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Enqueue はコマンドを記録する
func (m *MockTransport) Enqueue(cameraID, addr string, cmd protocol.Command, prio transport.Priority) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return "", errors.New("モック: 送信キューへの追加に失敗")
	}
	m.seq++
	id := fmt.Sprintf("msg-%d", m.seq)
	m.commands = append(m.commands, EnqueuedCommand{ID: id, CameraID: cameraID, Addr: addr, Command: cmd, Priority: prio})
	return id, nil
}

// Commands は記録されたコマンドのコピーを返す
func (m *MockTransport) Commands() []EnqueuedCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EnqueuedCommand, len(m.commands))
	copy(out, m.commands)
	return out
}

// Last は最後に記録されたコマンドを返す
func (m *MockTransport) Last() (EnqueuedCommand, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.commands) == 0 {
		return EnqueuedCommand{}, false
	}
	return m.commands[len(m.commands)-1], true
}

// SetShouldFail はテスト用に送信失敗を設定する
func (m *MockTransport) SetShouldFail(shouldFail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = shouldFail
}
