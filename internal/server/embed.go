package server

import (
	"embed"

	log "github.com/sirupsen/logrus"
)

//go:embed all:dist
var embedFS embed.FS

// getIndexHTML は埋め込まれた操作画面を返す
func getIndexHTML() []byte {
	data, err := embedFS.ReadFile("dist/index.html")
	if err != nil {
		log.Fatalf("埋め込みindex.htmlの読み込みに失敗: %v", err)
	}
	return data
}
