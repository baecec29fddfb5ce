package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Frame cache (debug)
		"Cleared %d cached frames":            "キャッシュ済みの %d フレームを破棄しました",
		"Discarded stale result for frame %d": "フレーム %d の古い読み込み結果を破棄しました",
		"Prefetch of frame %d failed: %s":     "フレーム %d の先読みに失敗しました: %s",
		"Cache hit ratio %.2f":                "キャッシュヒット率 %.2f",

		// Viewer
		"Source reconfigured: %d frames at %dx%d": "ソースを再設定しました: %d フレーム, %dx%d",
		"Frame %d failed: %s":                     "フレーム %d の読み込みに失敗しました: %s",

		// Export
		"Exporting frames %d-%d to %s with %d workers": "フレーム %d-%d を %s に書き出し中 (ワーカー %d)",
		"Exported %d frames":                           "%d フレームを書き出しました",
		"Wrote %s":                                     "%s を書き込みました",
		"Output saved to %s (%d files)":                "出力を %s に保存しました (%d ファイル)",

		// Scrub
		"Scrubbing frames %d-%d (step %d)": "フレーム %d-%d をスクラブ中 (ステップ %d)",
		"Scrubbed %d frames in %d ms":      "%d フレームを %d ms でスクラブしました",

		// Summary
		"Summary saved to %s":         "サマリーを %s に保存しました",
		"Failed to write summary: %s": "サマリーの書き込みに失敗しました: %s",

		// CLI
		"Interrupted, shutting down...": "中断されました。シャットダウン中...",
	})
}
