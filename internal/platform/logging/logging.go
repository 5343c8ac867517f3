// Package logging はslogのグローバルロガーを構築する。
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup はslog.Loggerを生成して返す。
// 本番ではJSON、開発ではテキスト形式で出力する。
func Setup(w io.Writer, production bool) *slog.Logger {
	if production {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// SetupDefault はSetupの結果をグローバルロガーとして設定する。
// writerがnilの場合はos.Stdoutに出力する。
func SetupDefault(w io.Writer, production bool) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	logger := Setup(w, production)
	slog.SetDefault(logger)
	return logger
}
