// Package main provides localization for the yuvview CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Frame Layout": "フレーム形式",
		"Cache":        "キャッシュ",
		"Logging":      "ログ",
		"Output":       "出力",

		// Root command
		"Inspect, export and scrub raw YUV sequences":                           "生のYUVシーケンスを確認・書き出し・スクラブ",
		"yuvview reads raw planar YUV files through a prefetching frame cache.": "yuvviewは先読みフレームキャッシュを通して生のプレーナーYUVファイルを読み込みます。",

		// Commands
		"Show frame count and layout of a file":                                 "ファイルのフレーム数と形式を表示",
		"Write frames as PNG or JPEG images":                                    "フレームをPNGまたはJPEG画像として書き出し",
		"Print a content hash per frame":                                        "フレームごとの内容ハッシュを表示",
		"Walk through frames the way a slider would and report cache behaviour": "スライダー操作のようにフレームを移動し、キャッシュの挙動を報告",
		"Show version information":                                              "バージョン情報を表示",
		"yuvview version %s":                                                    "yuvview バージョン %s",

		// Global flags
		"YAML configuration file":                   "YAML設定ファイル",
		"Frame width in pixels":                     "フレームの幅（ピクセル）",
		"Frame height in pixels":                    "フレームの高さ（ピクセル）",
		"Chroma format (400, 420, 422, 444)":        "色差フォーマット（400, 420, 422, 444）",
		"Bits per sample (8-16)":                    "サンプルあたりのビット数（8-16）",
		"Resolution preset (e.g. 1920x1080)":        "解像度プリセット（例: 1920x1080）",
		"Maximum number of cached frames":           "キャッシュする最大フレーム数",
		"Maximum number of concurrent frame loads":  "同時に読み込む最大フレーム数",
		"Prefetch window as a fraction of capacity": "容量に対する先読み範囲の割合",
		"Log level (debug, info, warn, error)":      "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                   "全てのログ出力を抑制",

		// Command flags
		"First frame index":                              "最初のフレーム番号",
		"Last frame index (-1 = last frame)":             "最後のフレーム番号（-1 = 最終フレーム）",
		"Output directory (required)":                    "出力ディレクトリ（必須）",
		"Output scale factor (1.0 = original size)":      "出力の拡大率（1.0 = 元のサイズ）",
		"Draw the frame index on each image":             "各画像にフレーム番号を描画",
		"Image format (png, jpeg)":                       "画像形式（png, jpeg）",
		"JPEG quality (1-100)":                           "JPEG品質（1-100）",
		"Number of export workers":                       "書き出しワーカー数",
		"Frames advanced per request":                    "1回の要求で進むフレーム数",
		"Pause after each frame (e.g. 40ms)":             "各フレーム後の待機時間（例: 40ms）",
		"Output scrub summary to file (Markdown format)": "スクラブのサマリーをファイルに出力（Markdown形式）",

		// Command output
		"File:    %s":                                                              "ファイル: %s",
		"Samples: %d":                                                              "サンプル数: %d",
		"Layout:  %s (%d bytes per frame)":                                         "形式:     %s (1フレーム %d バイト)",
		"Frames:  %d":                                                              "フレーム数: %d",
		"Cache:   %d frames, %d concurrent loads, prefetch %d":                     "キャッシュ: %d フレーム, 同時読み込み %d, 先読み %d",
		"Requested: %d (%d while loading, %d failed)":                              "要求数: %d (読み込み中 %d, 失敗 %d)",
		"Slowest:   frame %d, %d ms":                                               "最遅:   フレーム %d, %d ms",
		"Cache:     %d hits, %d coalesced, %d misses, %d prefetches, %d evictions": "キャッシュ: ヒット %d, 合流 %d, ミス %d, 先読み %d, 追い出し %d",

		// Errors
		"Error: %s":                     "エラー: %s",
		"FILE argument is required":     "FILE引数が必要です",
		"%s holds no complete %s frame": "%s には完全な %s フレームがありません",

		// Summary content
		"Scrub Summary":           "スクラブサマリー",
		"Source":                  "ソース",
		"Item":                    "項目",
		"Value":                   "値",
		"File":                    "ファイル",
		"Frames":                  "フレーム数",
		"Frame Size":              "フレームサイズ",
		"Format":                  "形式",
		"File Size":               "ファイルサイズ",
		"Cache Settings":          "キャッシュ設定",
		"Capacity":                "容量",
		"Concurrency Limit":       "同時読み込み上限",
		"Prefetch Window":         "先読み範囲",
		"Scrub":                   "スクラブ",
		"Range":                   "範囲",
		"step":                    "ステップ",
		"Frames Requested":        "要求フレーム数",
		"Requested While Loading": "読み込み中の要求",
		"Errors":                  "エラー",
		"Duration":                "所要時間",
		"Slowest Frame":           "最も遅いフレーム",
		"Cache Statistics":        "キャッシュ統計",
		"Counter":                 "カウンター",
		"Hits":                    "ヒット",
		"Coalesced":               "合流",
		"Misses":                  "ミス",
		"Prefetches":              "先読み",
		"Evictions":               "追い出し",
		"Failures":                "失敗",
		"Discarded":               "破棄",
		"Hit Ratio":               "ヒット率",
		"Generated at":            "生成日時",
	})
}
