// Package server は、HTTPサーバーとブラウザ向けの配信を管理します。
//
// このパッケージは、APIの各エンドポイントをセッションの操作に対応付け、
// プレビュー映像（MJPEG）と通知（Server-Sent Events）を配信し、
// ブースのページ（HTML/JS/CSS）を埋め込みファイルから提供します。
//
// 責務:
//   - HTTPサーバーの起動とグレースフルシャットダウン
//   - OpenAPI定義に基づくリクエスト検証とルーティング
//   - セッションのエラーをHTTPステータスへ変換
//   - アラートと状態変化のSSE配信
//
// 仕様:
//   - ルーターにはginを使用
//   - SSEのエンコードにはgin-contrib/sseを使用
//   - 接続がない間に発生したアラートは次に接続したクライアントへ送る
//   - シャットダウン時はストリーミング応答を先に終了させる
package server
