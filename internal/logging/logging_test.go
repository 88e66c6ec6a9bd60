package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestConfigure_Level(t *testing.T) {
	defer log.SetOutput(os.Stderr)

	testCases := []struct {
		name    string
		level   string
		want    log.Level
		wantErr bool
	}{
		{"未指定はinfo", "", log.InfoLevel, false},
		{"debug", "debug", log.DebugLevel, false},
		{"大文字", "WARN", log.WarnLevel, false},
		{"不正な値", "verbose", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			closer, err := Configure(tc.level, "")
			if tc.wantErr {
				if err == nil {
					t.Error("エラーが期待されましたが、nilが返されました")
				}
				return
			}
			if err != nil {
				t.Fatalf("予期しないエラー: %v", err)
			}
			if closer != nil {
				t.Error("標準エラー出力の場合は closer が nil のはずです")
			}
			if got := log.GetLevel(); got != tc.want {
				t.Errorf("level = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestConfigure_File(t *testing.T) {
	defer log.SetOutput(os.Stderr)

	dir := filepath.Join(t.TempDir(), "logs")
	closer, err := Configure("info", dir)
	if err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	log.WithField("camera", "rep1").Info("起動しました")
	log.SetOutput(os.Stderr)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("ログファイルを読めません: %v", err)
	}
	if !strings.Contains(string(data), "camera=rep1") {
		t.Errorf("ログにフィールドが含まれていません: %s", data)
	}
}
