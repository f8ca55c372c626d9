// Package media はキャンバス描画、Blob、チャンク録画の機能を提供する
//
// Canvas はJPEGフレームを元の解像度で描画しPNGにエンコードする。
// Recorder はカメラのストリームを購読し、一定間隔で録画データのチャンクを
// RecorderHandlers に渡す。ハンドラは常に単一のゴルーチンから到着順に呼ばれる。
package media
