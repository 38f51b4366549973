package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", messages)
}

// messages is the ja lexicon for log lines. Translations that reorder
// arguments use indexed verbs.
var messages = l10n.LexiconMap{
	// Orchestrator (info)
	"Selected %s":                    "%s を選択しました",
	"Extracting %d frames from %s":   "%[2]s から %[1]d フレームを抽出中",
	"Extracted %d frames in %d ms":   "%d フレームを %d ms で抽出しました",
	"Extraction failed: %v":          "抽出に失敗しました: %v",
	"Extraction progress: %d%%":      "抽出進捗: %d%%",
	"Result: %s (confidence %.1f%%)": "結果: %s (信頼度 %.1f%%)",
	"Exported %d frames to %s":       "%d フレームを %s に書き出しました",
	"Summary saved to %s":            "サマリーを %s に保存しました",
	"Exporting traces to %s":         "トレースを %s に送信します",
	"Failed to flush traces: %s":     "トレースの送信に失敗しました: %s",
	"Session reset":                  "セッションをリセットしました",
	"Interrupted, shutting down...":  "中断されました。シャットダウン中...",
	"Listening on %s":                "%s で待ち受け中",
	"Model server %s: %s (%s)":       "モデルサーバー %s: %s (%s)",
	"Debug output enabled: %s":       "デバッグ出力が有効です: %s",
	"Invalid input: %v":              "無効な入力です: %v",
	"Discarded extraction of %s: %v": "%s の抽出結果を破棄しました: %v",
	"Classifying %d frames":          "%d フレームを分類中",
	"Prediction failed: %v":          "予測に失敗しました: %v",
	"Export failed: %v":              "書き出しに失敗しました: %v",
	"Run %s started":                 "実行 %s を開始しました",
	"Run %s completed":               "実行 %s が完了しました",

	// Sampler
	"Video loaded: %.2f s, %dx%d": "動画を読み込みました: %.2f 秒, %dx%d",
	"Seeking to %.3f s":           "%.3f 秒へシーク中",
	"Sampled %d frames":           "%d フレームをサンプリングしました",

	// Normalize
	"Normalizing %d frames with %d workers": "%d フレームを %d ワーカーで正規化中",
	"Normalization completed":               "正規化が完了しました",

	// Dispatch
	"Sending %d frames, shape %v": "%d フレームを送信中 (形状 %v)",
	"Prediction: %s (%.3f)":       "予測: %s (%.3f)",

	// Export
	"Exported %d frames (%d bytes)": "%d フレームを書き出しました (%d バイト)",

	// Server
	"Stored upload %s as %s": "アップロード %s を %s に保存しました",

	// Source
	"Using %s capture backend": "%s キャプチャバックエンドを使用",
}
