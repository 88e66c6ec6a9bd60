package store

import (
	"context"
	"errors"
	"sync"

	"multicam/internal/settings"
)

// MockRepository はテスト用のメモリ上の実装
type MockRepository struct {
	mu         sync.RWMutex
	settings   map[string]settings.CameraSettings
	names      map[string]string
	shouldFail bool
}

// NewMockRepository は新しいMockRepositoryを作成する
func NewMockRepository() *MockRepository {
	return &MockRepository{
		settings: make(map[string]settings.CameraSettings),
		names:    make(map[string]string),
	}
}

func (m *MockRepository) LoadSettings(_ context.Context, cameraID string) (*settings.CameraSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[cameraID]
	if !ok {
		return nil, nil
	}
	s = s.Clone()
	return &s, nil
}

func (m *MockRepository) SaveSettings(_ context.Context, cameraID string, s settings.CameraSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return errors.New("モック: 保存に失敗")
	}
	m.settings[cameraID] = s.Clone()
	return nil
}

func (m *MockRepository) LoadName(_ context.Context, cameraID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.names[cameraID], nil
}

func (m *MockRepository) SaveName(_ context.Context, cameraID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return errors.New("モック: 保存に失敗")
	}
	m.names[cameraID] = name
	return nil
}

// SetShouldFail はテスト用に保存の失敗を設定する
func (m *MockRepository) SetShouldFail(shouldFail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = shouldFail
}
