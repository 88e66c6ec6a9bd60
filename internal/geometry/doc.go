// Package geometry プレビュー座標とセンサー座標の相互変換を担う
//
// # 責務
// - プレビュー上で指定されたクロップ矩形をセンサー解像度の矩形に変換する
// - 保存済みのセンサー矩形を任意サイズのプレビューへ再描画用に逆変換する
// - プレビューとセンサーのアスペクト比のずれを検出する
//
// # 仕様
// - 軸ごとに独立したスケールで変換する（アスペクト比の不一致はエラーではない）
// - 変換後の矩形は常にセンサー範囲内にクランプされる
// - 幅または高さが0以下になる矩形は InvalidCropError で拒否する
// - 純粋関数のみで構成され、並行呼び出しに同期は不要
package geometry
