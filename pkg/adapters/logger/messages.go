package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Session
		"Codec %s selected":                       "コーデック %s を選択しました",
		"Codec %s is not supported":               "コーデック %s はサポートされていません",
		"Build started: %s":                       "ビルドを開始しました: %s",
		"Build already in progress":               "ビルドは既に実行中です",
		"Building %s with %s (%s)...":             "%s を %s で作成しています (%s)...",
		"Video muxed - file path: %s":             "動画を作成しました - ファイル: %s",
		"There was an error muxing the video: %s": "動画の作成中にエラーが発生しました: %s",
		"Write permission denied for %s":          "%s への書き込み権限が拒否されました",
		"Sharing video...":                        "動画を共有しています...",
		"Sharing %s (%s)":                         "%s を共有しています (%s)",
		"Playing %s":                              "%s を再生しています",
		"Interrupted, cancelling build...":        "中断されました。ビルドをキャンセルしています...",
		"Interrupted, shutting down...":           "中断されました。シャットダウン中...",
		"Actions: build=%t play=%t share=%t":      "操作: ビルド=%t 再生=%t 共有=%t",
		"Failed to play video: %s":                "動画の再生に失敗しました: %s",
		"Failed to share video: %s":               "動画の共有に失敗しました: %s",

		// Completion
		"Ignoring duplicate result for %s": "%s の重複した結果を無視します",
		"Discarding result for %s: %s":     "%s の結果を破棄します: %s",

		// Muxer
		"Muxing %d frames at %.2f fps with %s": "%d フレームを %.2f fps、%s で多重化しています",
		"Encoded frame %d/%d":                  "フレームをエンコードしました %d/%d",
		"Container finalized: %d bytes":        "コンテナを確定しました: %d バイト",
		"Output written to %s":                 "出力を %s に書き込みました",
		"Job failed in %s phase: %s":           "ジョブが %s フェーズで失敗しました: %s",
		"Removing incomplete output %s":        "不完全な出力 %s を削除しています",
		"Failed to remove %s: %s":              "%s の削除に失敗しました: %s",
		"Failed to save debug frame %d: %s":    "デバッグフレーム %d の保存に失敗しました: %s",
		"Failed to save debug result: %s":      "デバッグ結果の保存に失敗しました: %s",

		// Encoders
		"Starting ffmpeg: %s": "ffmpeg を起動しています: %s",
		"ffmpeg encoders: %s": "ffmpeg エンコーダー: %s",

		// Frame sources
		"Materializing %d frames with %d workers": "%d フレームを %d ワーカーで生成しています",
		"Loading frame %s":                        "フレーム %s を読み込んでいます",

		// Platform
		"Cannot create %s: %s":   "%s を作成できません: %s",
		"Cannot write to %s: %s": "%s に書き込めません: %s",

		// Summary
		"Summary saved to %s":         "サマリーを %s に保存しました",
		"Failed to write summary: %s": "サマリーの書き込みに失敗しました: %s",
		"Failed to probe %s: %s":      "%s の解析に失敗しました: %s",
	})
}
