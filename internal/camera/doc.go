// Package camera 8台のカメラユニットの状態と設定を管理する
//
// # 責務
// - 設定ファイルに書かれたカメラの登録と、表示名・設定の永続化
// - カメラごとの状態遷移（idle → streaming → capturing → streaming/idle、生存通知途絶で offline）
// - 設定の部分更新（マージ → 検証 → 保存 → SET_ALL_SETTINGS 送信）
// - プレビュー座標で指定されたクロップのセンサー座標への変換と適用
// - 単独表示（フォーカス）の排他管理
// - 状態変化イベントの配信
//
// # 仕様
// - 撮影中のカメラへの撮影・ストリーム操作・設定変更は ErrCaptureInProgress で拒否する
// - 撮影中の状態は CAPTURE_STILL の送信結果を受けた時点で解除する
// - 一度も生存通知を受けていないカメラは offline にしない
// - offline 中の設定変更は保存のみ行い、復帰時に再送する
// - フォーカスできるカメラは常に1台まで
// - 同じカメラへの操作は直列化され、後から来た操作が勝つ
package camera
