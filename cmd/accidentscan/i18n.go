// Package main provides localization for the accidentscan CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	l10n.Register("ja", cliMessages)
}

// cliMessages holds Japanese translations for help text and CLI output.
var cliMessages = l10n.LexiconMap{
	// Flag categories
	"Output":    "出力",
	"Inference": "推論",
	"Capture":   "フレーム取得",
	"Sampling":  "サンプリング",
	"Server":    "サーバー",
	"Debug":     "デバッグ",
	"Logging":   "ログ",
	"Tracing":   "トレース",

	// Root command
	"Detect traffic accidents in dashcam and CCTV videos":                                                                "ドライブレコーダーや監視カメラの動画から交通事故を検出",
	"accidentscan samples frames from a video, normalizes them and asks an accident classification model for a verdict.": "accidentscanは動画からフレームを抽出・正規化し、事故分類モデルに判定を依頼します。",

	// Commands
	"Sample frames and write the export document": "フレームを抽出してエクスポート文書を書き出す",
	"Sample frames and classify them":             "フレームを抽出して分類する",
	"Serve the workflow over HTTP":                "HTTPでワークフローを提供",
	"Check the inference endpoint health":         "推論エンドポイントの状態を確認",
	"Show version information":                    "バージョン情報を表示",
	"accidentscan version %s":                     "accidentscan バージョン %s",

	// Flags
	"YAML configuration file":                      "YAML設定ファイル",
	"Log level (debug, info, warn, error)":         "ログレベル（debug, info, warn, error）",
	"Suppress all log output":                      "全てのログ出力を抑制",
	"Enable debug output":                          "デバッグ出力を有効化",
	"Directory for debug output":                   "デバッグ出力のディレクトリ",
	"OTLP/HTTP traces URL (disabled when empty)":   "OTLP/HTTPトレース送信先URL（空の場合は無効）",
	"Inference endpoint URL":                       "推論エンドポイントのURL",
	"Export document path":                         "エクスポート文書のパス",
	"Also write the export document":               "エクスポート文書も書き出す",
	"Write a run summary to FILE":                  "実行サマリーをFILEに出力",
	"Summary format (markdown, yaml)":              "サマリー形式（markdown, yaml）",
	"Listen address":                               "待ち受けアドレス",
	"Directory for uploaded videos":                "アップロード動画の保存先",
	"Number of frames to sample":                   "抽出するフレーム数",
	"Normalization workers":                        "正規化のワーカー数",
	"Seek timeout in milliseconds":                 "シークのタイムアウト（ミリ秒）",
	"Capture backend (auto, ffmpeg, chrome, gocv)": "フレーム取得バックエンド（auto, ffmpeg, chrome, gocv）",
	"Path to ffmpeg executable":                    "ffmpeg実行ファイルのパス",
	"Path to Chrome executable":                    "Chrome実行ファイルのパス",
	"Run browser in non-headless mode":             "ブラウザを非ヘッドレスモードで実行",

	// Runtime messages
	"Error: %s":                    "エラー: %s",
	"Extracting frames from %s...": "%s からフレームを抽出中...",
	"Analyzing %s...":              "%s を解析中...",
	"Output saved to %s":           "出力を %s に保存しました",
	"Failed to write summary: %s":  "サマリーの書き込みに失敗しました: %s",
}
