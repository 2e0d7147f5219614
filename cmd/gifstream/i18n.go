// Package main provides localization for the gifstream CLI.
package main

import (
	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Encode image sequences into high quality animated GIFs.": "画像の連番から高品質なアニメーションGIFを作成します。",

		// Commands
		"Encode image files into an animated GIF.": "画像ファイルをアニメーションGIFにエンコード",
		"Show version information.":                "バージョン情報を表示",

		// Encode flags
		"PNG, JPEG, GIF, BMP or WebP frames, in display order.":                       "表示順に並べた PNG・JPEG・GIF・BMP・WebP のフレーム",
		"Destination: a file path, - for stdout, s3://bucket/key or gs://bucket/object.": "出力先: ファイルパス、標準出力は -、s3://bucket/key または gs://bucket/object",
		"YAML configuration file.":                                                    "YAML 設定ファイル",
		"Write a Markdown encode report to this path.":                                "エンコード結果の Markdown レポートを出力するパス",
		"Encode without writing the GIF anywhere.":                                    "GIF を出力せずにエンコードのみ行う",
		"Quality 1-100 (default: 90).":                                                "品質 1-100 (デフォルト: 90)",
		"Quality of motion denoising, 1-100 (default: same as quality).":              "動きのノイズ除去の品質 1-100 (デフォルト: 品質と同じ)",
		"Quality of LZW lossy compression, 1-100 (default: same as quality).":         "LZW 非可逆圧縮の品質 1-100 (デフォルト: 品質と同じ)",
		"Trade quality for encoding speed.":                                           "品質を下げて高速にエンコード",
		"Spend more time on palette quality.":                                         "時間をかけてパレットの品質を上げる",
		"Maximum width in pixels.":                                                    "最大幅 (ピクセル)",
		"Maximum height in pixels.":                                                   "最大高さ (ピクセル)",
		"Frame rate of the input files (default: 20).":                                "入力ファイルのフレームレート (デフォルト: 20)",
		"Speed-up factor, 2 plays twice as fast.":                                     "再生速度の倍率 (2 で 2 倍速)",
		"Number of repetitions: -1 plays once, 0 loops forever.":                      "繰り返し回数: -1 は 1 回のみ、0 は無限ループ",
		"Keep files in the given order instead of sorting them by name.":              "ファイル名で並べ替えず指定順のまま使う",
		"Color kept in every palette (hex), may be repeated.":                         "すべてのパレットに含める色 (16 進数、複数指定可)",
		"Background color for semi-transparent pixels (hex).":                         "半透明ピクセルの背景色 (16 進数)",
		"Number of files decoded in parallel (default: 4).":                           "並列にデコードするファイル数 (デフォルト: 4)",
		"Log level (debug, info, warn, error).":                                       "ログレベル (debug, info, warn, error)",
		"Suppress all log output.":                                                    "ログ出力をすべて抑制",

		// Runtime messages
		"Interrupted, shutting down...":  "中断されました。シャットダウン中...",
		"interrupted":                    "中断されました",
		"Encoding %d frames to %s":       "%d フレームを %s にエンコード中",
		"Output saved to %s (%s)":        "出力を %s に保存しました (%s)",
		"Summary saved to %s":            "サマリーを %s に保存しました",
		"Failed to write summary: %s":    "サマリーの書き込みに失敗しました: %s",
		"gifstream version %s":           "gifstream バージョン %s",
	})
}

// helpVars resolves the ${help_*} placeholders in the command tags with
// translated text.
func helpVars() kong.Vars {
	return kong.Vars{
		"help_encode":         l10n.T("Encode image files into an animated GIF."),
		"help_version":        l10n.T("Show version information."),
		"help_files":          l10n.T("PNG, JPEG, GIF, BMP or WebP frames, in display order."),
		"help_output":         l10n.T("Destination: a file path, - for stdout, s3://bucket/key or gs://bucket/object."),
		"help_config":         l10n.T("YAML configuration file."),
		"help_summary":        l10n.T("Write a Markdown encode report to this path."),
		"help_dry_run":        l10n.T("Encode without writing the GIF anywhere."),
		"help_quality":        l10n.T("Quality 1-100 (default: 90)."),
		"help_motion_quality": l10n.T("Quality of motion denoising, 1-100 (default: same as quality)."),
		"help_lossy_quality":  l10n.T("Quality of LZW lossy compression, 1-100 (default: same as quality)."),
		"help_fast":           l10n.T("Trade quality for encoding speed."),
		"help_extra":          l10n.T("Spend more time on palette quality."),
		"help_width":          l10n.T("Maximum width in pixels."),
		"help_height":         l10n.T("Maximum height in pixels."),
		"help_fps":            l10n.T("Frame rate of the input files (default: 20)."),
		"help_fast_forward":   l10n.T("Speed-up factor, 2 plays twice as fast."),
		"help_repeat":         l10n.T("Number of repetitions: -1 plays once, 0 loops forever."),
		"help_no_sort":        l10n.T("Keep files in the given order instead of sorting them by name."),
		"help_fixed_color":    l10n.T("Color kept in every palette (hex), may be repeated."),
		"help_matte":          l10n.T("Background color for semi-transparent pixels (hex)."),
		"help_workers":        l10n.T("Number of files decoded in parallel (default: 4)."),
		"help_log_level":      l10n.T("Log level (debug, info, warn, error)."),
		"help_quiet":          l10n.T("Suppress all log output."),
	}
}
