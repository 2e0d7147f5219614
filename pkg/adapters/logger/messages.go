package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Encoder
		"Writing GIF to %s": "GIF を %s に書き込み中",
		"Encoding with quality %d, motion quality %d, lossy quality %d": "品質 %d、動き品質 %d、非可逆品質 %d でエンコード中",
		"Frame %d was already encoded, skipping":                        "フレーム %d はエンコード済みのためスキップします",
		"Encoded %d frames, %d bytes":                                   "%d フレームをエンコードしました (%d バイト)",

		// Orchestrator
		"Encoding failed: %s":                   "エンコードに失敗しました: %s",
		"Encoding aborted by progress observer": "進捗オブザーバーによりエンコードが中止されました",
		"Wrote %d frames":                       "%d フレームを書き込みました",

		// Ordering stage
		"Skipping frame %d: timestamp %.3f does not follow %.3f": "フレーム %d をスキップ: タイムスタンプ %.3f が %.3f より後ではありません",

		// Composite stage
		"Resizing frame %d from %dx%d to %dx%d": "フレーム %d を %dx%d から %dx%d にリサイズ中",

		// Denoise stage
		"Denoising %dx%d frames, threshold %d":      "%dx%d のフレームのノイズを除去中 (しきい値 %d)",
		"Frame %d is identical to frame %d, merging": "フレーム %d はフレーム %d と同一のため統合します",

		// Quantize stage
		"Frame %d: %d colors, %dx%d at %d,%d": "フレーム %d: %d 色、%dx%d (位置 %d,%d)",

		// Encode stage
		"Writing %dx%d GIF, loop count %d": "%dx%d の GIF を書き込み中 (ループ回数 %d)",

		// Remote sinks
		"Upload to s3://%s/%s aborted": "s3://%s/%s へのアップロードを中止しました",
		"Uploaded s3://%s/%s":          "s3://%s/%s にアップロードしました",
		"Upload to %s aborted":         "%s へのアップロードを中止しました",
		"Uploaded %s":                  "%s にアップロードしました",
	})
}
