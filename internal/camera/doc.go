// Package camera カメラデバイスの検出とライブストリームの取得を担う
//
// # 責務
// - V4L2デバイスの検出とデバイス記述子の生成
// - 制約（デバイスID・希望解像度・向き）に基づくストリームの取得
// - ストリームのトラック管理（停止・状態）と購読者へのフレーム配信
//
// # 仕様
// - MediaDevices: デバイス列挙とストリーム取得の窓口
// - Discovery: /dev/video* の検出・実名取得
// - V4L2Capturer: ffmpeg経由でのMJPEGキャプチャ
// - Stream / Track: 1本の映像トラックを持つライブストリーム
// - Mock*: 他パッケージのテストで使うインメモリ実装
//
// # 前提要件
//   - v4l-utils: カメラ名の取得に使用
//     Ubuntu/Debian: sudo apt install v4l-utils
//   - ffmpeg: 画像キャプチャとストリーミングに使用
//     Ubuntu/Debian: sudo apt install ffmpeg
//   - videoグループへの参加: デバイスアクセス権限
//     sudo usermod -a -G video $USER
package camera
