package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"multicam/internal/geometry"
	"multicam/internal/settings"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Network  NetworkConfig  `yaml:"network"`
	Cameras  []CameraDevice `yaml:"cameras"`
	Settings SettingsConfig `yaml:"settings"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト
	Port int    `yaml:"port"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"write_timeout"` // 書き込みタイムアウト
}

// Ports はカメラユニット1台が使うUDPポートの組
type Ports struct {
	Control      int `yaml:"control"`       // 設定・システムコマンド
	Video        int `yaml:"video"`         // プレビュー映像
	Still        int `yaml:"still"`         // 静止画撮影
	Heartbeat    int `yaml:"heartbeat"`     // 生存通知
	VideoControl int `yaml:"video_control"` // ストリーム制御
}

// NetworkConfig はカメラユニットとの通信設定
type NetworkConfig struct {
	MasterIP string `yaml:"master_ip"`

	// リモートのカメラユニットが使うポート
	Ports Ports `yaml:"ports"`
	// マスターと同じ筐体のカメラが使うポート（リモートと衝突しないようずらしてある）
	LocalPorts Ports `yaml:"local_ports"`

	// HeartbeatListen はマスター側で生存通知を受けるアドレス
	HeartbeatListen string `yaml:"heartbeat_listen"`

	SendTimeout      time.Duration `yaml:"send_timeout"`
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout"`
	MaxRetries       int           `yaml:"max_retries"`
	ShutdownRetries  int           `yaml:"shutdown_retries"` // SHUTDOWN と REBOOT に適用する
	RetryInterval    time.Duration `yaml:"retry_interval"`
	QueueSize        int           `yaml:"queue_size"`
	ScanInterval     time.Duration `yaml:"scan_interval"`
	Mock             bool          `yaml:"mock"` // 実機なしで動かす場合 true
}

// CameraDevice は個別カメラの設定
type CameraDevice struct {
	ID    string `yaml:"id"`    // カメラID (例: rep1)
	Name  string `yaml:"name"`  // 表示名
	IP    string `yaml:"ip"`    // カメラユニットのIPアドレス
	Local bool   `yaml:"local"` // マスターと同じ筐体のカメラ

	PreviewWidth  int `yaml:"preview_width"`
	PreviewHeight int `yaml:"preview_height"`
	SensorWidth   int `yaml:"sensor_width"`
	SensorHeight  int `yaml:"sensor_height"`
}

// Geometry はプレビューとセンサーの寸法を返す
func (d CameraDevice) Geometry() geometry.PreviewGeometry {
	return geometry.PreviewGeometry{
		PreviewWidth:  d.PreviewWidth,
		PreviewHeight: d.PreviewHeight,
		SensorWidth:   d.SensorWidth,
		SensorHeight:  d.SensorHeight,
	}
}

// SettingsConfig は設定値の検証範囲
type SettingsConfig struct {
	BrightnessMin   int     `yaml:"brightness_min"`
	BrightnessMax   int     `yaml:"brightness_max"`
	AspectTolerance float64 `yaml:"aspect_tolerance"`
}

// Limits は検証に使う範囲を返す
func (s SettingsConfig) Limits() settings.Limits {
	return settings.Limits{Brightness: settings.Range{Min: s.BrightnessMin, Max: s.BrightnessMax}}
}

// StoreConfig は設定の永続化先
type StoreConfig struct {
	Path string `yaml:"path"` // SQLiteファイルのパス。":memory:" でメモリ上に作成
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"` // 空の場合は標準エラー出力
}

// 既定のカメラ構成（rep1..rep7 はリモート、rep8 はマスター筐体）
const (
	defaultSubnet       = "192.168.0."
	defaultFirstHost    = 201
	defaultRemoteCount  = 7
	defaultLocalID      = "rep8"
	defaultPreviewW     = 640
	defaultPreviewH     = 480
	defaultSensorWidth  = 4056
	defaultSensorHeight = 3040
)

// Default は既定値だけで構成した設定を返す
func Default() *Config {
	cameras := make([]CameraDevice, 0, defaultRemoteCount+1)
	for i := 0; i < defaultRemoteCount; i++ {
		cameras = append(cameras, defaultDevice(fmt.Sprintf("rep%d", i+1), fmt.Sprintf("%s%d", defaultSubnet, defaultFirstHost+i), false))
	}
	cameras = append(cameras, defaultDevice(defaultLocalID, "127.0.0.1", true))

	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // WebSocket用にタイムアウト無効化
		},
		Network: NetworkConfig{
			MasterIP:         "192.168.0.200",
			Ports:            Ports{Control: 5001, Video: 5002, Still: 6000, Heartbeat: 5003, VideoControl: 5004},
			LocalPorts:       Ports{Control: 5011, Video: 5012, Still: 6010, Heartbeat: 5013, VideoControl: 5011},
			HeartbeatListen:  "0.0.0.0:5003",
			SendTimeout:      2 * time.Second,
			HeartbeatTimeout: 5 * time.Second,
			MaxRetries:       3,
			ShutdownRetries:  1,
			RetryInterval:    100 * time.Millisecond,
			QueueSize:        256,
			ScanInterval:     time.Second,
		},
		Cameras: cameras,
		Settings: SettingsConfig{
			BrightnessMin:   settings.DefaultBrightnessMin,
			BrightnessMax:   settings.DefaultBrightnessMax,
			AspectTolerance: geometry.DefaultAspectTolerance,
		},
		Store: StoreConfig{Path: "multicam.db"},
		Log:   LogConfig{Level: "info"},
	}
}

func defaultDevice(id, ip string, local bool) CameraDevice {
	return CameraDevice{
		ID:            id,
		Name:          id,
		IP:            ip,
		Local:         local,
		PreviewWidth:  defaultPreviewW,
		PreviewHeight: defaultPreviewH,
		SensorWidth:   defaultSensorWidth,
		SensorHeight:  defaultSensorHeight,
	}
}

// fillCameraDefaults はYAMLで省略された寸法と表示名を既定値で補う
func (c *Config) fillCameraDefaults() {
	for i := range c.Cameras {
		d := &c.Cameras[i]
		if d.Name == "" {
			d.Name = d.ID
		}
		if d.PreviewWidth == 0 && d.PreviewHeight == 0 {
			d.PreviewWidth, d.PreviewHeight = defaultPreviewW, defaultPreviewH
		}
		if d.SensorWidth == 0 && d.SensorHeight == 0 {
			d.SensorWidth, d.SensorHeight = defaultSensorWidth, defaultSensorHeight
		}
	}
}

// Load は設定を読み込む
// 既定値 → YAMLファイル（path が空でなければ）→ 環境変数 の順に上書きする
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの解析に失敗: %w", err)
		}
		cfg.fillCameraDefaults()
	}

	cfg.Server.Host = getEnvOrDefault("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsIntOrDefault("PORT", cfg.Server.Port)
	cfg.Log.Level = getEnvOrDefault("MULTICAM_LOG_LEVEL", cfg.Log.Level)
	cfg.Network.Mock = getEnvAsBoolOrDefault("MULTICAM_MOCK", cfg.Network.Mock)

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}

	for name, p := range map[string]Ports{"ports": c.Network.Ports, "local_ports": c.Network.LocalPorts} {
		if err := p.validate(); err != nil {
			return fmt.Errorf("network.%s: %w", name, err)
		}
	}
	if c.Network.SendTimeout <= 0 || c.Network.HeartbeatTimeout <= 0 {
		return errors.New("送信タイムアウトと生存通知タイムアウトは正の値が必要です")
	}
	if c.Network.MaxRetries < 1 || c.Network.ShutdownRetries < 1 {
		return errors.New("リトライ回数は1以上が必要です")
	}

	if len(c.Cameras) == 0 {
		return errors.New("カメラが設定されていません")
	}
	seen := make(map[string]bool, len(c.Cameras))
	for _, d := range c.Cameras {
		if d.ID == "" {
			return errors.New("カメラIDが空です")
		}
		if seen[d.ID] {
			return fmt.Errorf("カメラIDが重複しています: %s", d.ID)
		}
		seen[d.ID] = true
		if net.ParseIP(d.IP) == nil {
			return fmt.Errorf("カメラ %s のIPアドレスが不正です: %q", d.ID, d.IP)
		}
		if err := d.Geometry().Validate(); err != nil {
			return fmt.Errorf("カメラ %s: %w", d.ID, err)
		}
	}

	if c.Settings.BrightnessMin >= c.Settings.BrightnessMax {
		return fmt.Errorf("明るさの範囲が不正です: [%d, %d]", c.Settings.BrightnessMin, c.Settings.BrightnessMax)
	}
	if c.Settings.AspectTolerance < 0 {
		return fmt.Errorf("アスペクト比の許容差が負の値です: %f", c.Settings.AspectTolerance)
	}

	return nil
}

func (p Ports) validate() error {
	for _, port := range []int{p.Control, p.Video, p.Still, p.Heartbeat, p.VideoControl} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("無効なポート番号: %d", port)
		}
	}
	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// PortsFor はカメラが使うポートの組を返す
func (c *Config) PortsFor(d CameraDevice) Ports {
	if d.Local {
		return c.Network.LocalPorts
	}
	return c.Network.Ports
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault は環境変数を真偽値として取得する
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}
