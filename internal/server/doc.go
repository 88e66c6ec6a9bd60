// Package server は、マスター制御用のHTTP APIとWebSocket通知を提供します。
//
// このパッケージは、カメラマネージャーへの操作をHTTPで公開し、
// カメラの状態変化をWebSocketでブラウザへ配信します。
//
// 責務:
//   - HTTPサーバーの起動とグレースフルシャットダウン
//   - カメラ一覧・設定・クロップ・単独表示のAPI
//   - ストリーム制御・撮影・再起動・電源断のコマンドAPI
//   - 状態変化イベントのWebSocket配信
//   - 埋め込みの操作画面の配信
//
// 仕様:
//   - APIの型とルーティングは api/openapi.yaml から oapi-codegen で生成した
//     internal/generated の ServerInterface を実装する
//   - リクエストは kin-openapi の openapi3filter で定義と照合し、型と必須項目の違反は 400 にする
//     (値の範囲はカメラごとの設定で決まるためドメイン側で検証する)
//   - ルーティングにはginを使用
//   - WebSocketはgorilla/websocketを使用
//   - ドメインのエラーはHTTPステータスに変換する
//     (検証エラー 400, 未登録カメラ 404, 撮影中 409, オフライン 503)
//   - SIGINT/SIGTERMまたはコンテキストのキャンセルで停止する
package server
