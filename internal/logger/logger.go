package logger

import (
	"io"
	"os"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/rs/zerolog"
)

// New debug 環境輸出 console 格式, 其他環境輸出 json
// extra 例如 KafkaWriter, 會跟 stdout 一起寫
func New(env string, extra ...io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	level := zerolog.InfoLevel
	if env == string(constants.Debug) {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}

	if len(extra) > 0 {
		writers := append([]io.Writer{out}, extra...)
		out = zerolog.MultiLevelWriter(writers...)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "marketplace").Logger()
}
