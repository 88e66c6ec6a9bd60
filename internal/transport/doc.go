// Package transport カメラユニットへのコマンド送信と生存通知の受信を担う
//
// # 責務
// - 優先度付きキューとワーカーによるコマンドの非同期送信
// - 送信失敗時の再送と送信統計
// - コマンド分類から送信先ポートへの振り分け
// - HEARTBEAT データグラムの受信
//
// # 仕様
// - 優先度は CRITICAL > HIGH > NORMAL > LOW、同じ優先度では投入順に送る
// - 再送は同じ優先度でキューに戻す。SHUTDOWN は再送回数を別に設定する
// - 1データグラム = protocol.Encode の結果1件（UTF-8）
// - Mock 設定時は MockSender を使い、実際には送信しない
package transport
