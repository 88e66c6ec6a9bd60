// Package logging はアプリケーション全体のロガー設定を行う
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// FileName はログディレクトリ指定時に書き込むファイル名
const FileName = "multicam.log"

// Configure はlogrusの標準ロガーにレベル・書式・出力先を設定する
// dir が空または "-" の場合は標準エラー出力に書く
// 戻り値の io.Closer はログファイルを閉じるためのもの（標準エラー出力の場合は nil）
func Configure(level, dir string) (io.Closer, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("ログレベルが不正です: %w", err)
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{
		DisableColors:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	if dir == "" || dir == "-" {
		log.SetOutput(os.Stderr)
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ログディレクトリの作成に失敗: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ログファイルを開けません: %w", err)
	}
	log.SetOutput(f)
	return f, nil
}
