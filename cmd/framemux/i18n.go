// Package main provides localization for the framemux CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Output":            "出力先",
		"Video and Quality": "動画と品質",
		"Frames":            "フレーム",
		"Execution":         "実行",
		"Debug":             "デバッグ",
		"Logging":           "ログ",

		// Root command
		"Mux image frames into MP4 videos": "画像フレームをMP4動画に多重化",
		"YAML configuration file":          "YAML設定ファイル",
		"framemux version %s":              "framemux バージョン %s",

		// Build command
		"Build a video from generated or stored frames": "生成または保存済みのフレームから動画を作成",
		"Output file name": "出力ファイル名",
		"Output directory (default: the user's Videos directory)":                    "出力ディレクトリ（デフォルト: ユーザーのビデオフォルダ）",
		"Write a build summary (.md or .yaml)":                                       "ビルドサマリーを出力（.md または .yaml）",
		"Open the video when the build succeeds":                                     "ビルド成功時に動画を開く",
		"Reveal the video for sharing when the build succeeds":                       "ビルド成功時に共有用に動画を表示",
		"Codec (avc, hevc, mjpeg or a MIME type)":                                    "コーデック（avc, hevc, mjpeg またはMIMEタイプ）",
		"Frame width in pixels":                                                      "フレームの幅（ピクセル）",
		"Frame height in pixels":                                                     "フレームの高さ（ピクセル）",
		"Number of video tracks":                                                     "動画トラック数",
		"Frames per second":                                                          "フレームレート（fps）",
		"Target bitrate in bits per second":                                          "目標ビットレート（bps）",
		"Codec quality hint (0 = codec default, 1-63 for AVC/HEVC, 1-100 for MJPEG)": "コーデックの品質指定（0 = コーデックの既定値、AVC/HEVC は 1-63、MJPEG は 1-100）",
		"Number of generated frames":                                                 "生成するフレーム数",
		"Seed for generated frame colors":                                            "生成フレームの色のシード値",
		"Directory of PNG or JPEG frames to use instead of generated ones":           "生成フレームの代わりに使うPNG/JPEGフレームのディレクトリ",
		"Render every frame before muxing starts":                                    "多重化の開始前に全フレームを描画",
		"Workers rendering frames when preloading":                                   "事前描画のワーカー数",
		"Completion strategy (callback, await)":                                      "完了通知の方式（callback, await）",
		"Path to the ffmpeg executable":                                              "ffmpeg実行ファイルのパス",
		"Enable debug output":                                                        "デバッグ出力を有効化",
		"Directory for debug output":                                                 "デバッグ出力のディレクトリ",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "全てのログ出力を抑制",

		// Codecs command
		"List codecs and whether they can be encoded here": "コーデックとこの環境でのエンコード可否を一覧表示",
		"CODEC":     "コーデック",
		"BACKEND":   "バックエンド",
		"LIBRARY":   "ライブラリ",
		"SUPPORTED": "対応",
		"yes":       "はい",
		"no":        "いいえ",

		// Probe command
		"Show the tracks of an MP4 file":               "MP4ファイルのトラックを表示",
		"A file argument is required":                  "ファイル引数が必要です",
		"Size: %d bytes, fragmented: %t, duration: %s": "サイズ: %d バイト, フラグメント化: %t, 再生時間: %s",
		"Track %d: %s (%s) %dx%d, %d samples, %s":      "トラック %d: %s (%s) %dx%d, %d サンプル, %s",
		"  coded size %dx%d":                           "  符号化サイズ %dx%d",

		// Runtime messages
		"Muxing": "多重化中",

		// Summary content
		"Build Summary": "ビルドサマリー",
		"Attempt":       "試行",
		"Strategy":      "通知方式",
		"Started":       "開始",
		"Finished":      "終了",
		"Settings":      "設定",
		"Codec":         "コーデック",
		"Dimensions":    "サイズ",
		"Tracks":        "トラック数",
		"Frame Rate":    "フレームレート",
		"Bitrate":       "ビットレート",
		"Quality":       "品質",
		"Result":        "結果",
		"Status":        "状態",
		"Succeeded":     "成功",
		"Failed":        "失敗",
		"File":          "ファイル",
		"Duration":      "再生時間",
		"File Size":     "ファイルサイズ",
		"Elapsed":       "処理時間",
		"Phase":         "フェーズ",
		"Frame":         "フレーム",
		"Error":         "エラー",
		"Container":     "コンテナ",
		"Track":         "トラック",
		"Format":        "形式",
		"Samples":       "サンプル数",
		"coded":         "符号化",
		"Item":          "項目",
		"Value":         "値",
		"Generated at":  "生成日時",
	})
}
