package logger

import (
	"encoding/json"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// prettyEncoder renders entries as one colored header line followed by indented fields.
// Fields are produced by an inner JSON encoder so that nested objects print the same
// way they do in production logs.
type prettyEncoder struct {
	zapcore.Encoder
	pool buffer.Pool
}

func newPrettyLogger(cfg *zap.Config) *zap.Logger {
	enc := &prettyEncoder{Encoder: zapcore.NewJSONEncoder(cfg.EncoderConfig), pool: buffer.NewPool()}
	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), cfg.Level)
	opts := []zap.Option{zap.ErrorOutput(zapcore.AddSync(os.Stderr))}
	if !cfg.DisableCaller {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(core, opts...)
}

func (e *prettyEncoder) Clone() zapcore.Encoder {
	return &prettyEncoder{Encoder: e.Encoder.Clone(), pool: e.pool}
}

func (e *prettyEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	raw, err := e.Encoder.EncodeEntry(entry, fields)
	if err != nil {
		return nil, err
	}
	defer raw.Free()

	out := e.pool.Get()
	out.AppendString(prettyHeader(entry))

	var payload map[string]any
	if json.Unmarshal(raw.Bytes(), &payload) != nil {
		out.AppendString(" ")
		out.AppendString(strings.TrimRight(raw.String(), "\n"))
		out.AppendByte('\n')
		return out, nil
	}

	ec := encoderConfig()
	for _, k := range []string{ec.MessageKey, ec.LevelKey, ec.NameKey, ec.TimeKey} {
		delete(payload, k)
	}
	out.AppendByte('\n')

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	keyColor := fieldKeyColor(entry.Level)
	for _, k := range keys {
		out.AppendString("    ")
		out.AppendString(keyColor.Sprint(k))
		out.AppendString(": ")
		out.AppendString(prettyValue(payload[k]))
		out.AppendByte('\n')
	}
	return out, nil
}

func prettyHeader(entry zapcore.Entry) string {
	var b strings.Builder
	b.WriteString(color.New(color.Faint).Sprint(entry.Time.Format(time.TimeOnly)))
	b.WriteByte(' ')
	b.WriteString(levelColor(entry.Level).Sprintf("%-5s", entry.Level.CapitalString()))
	if entry.LoggerName != "" {
		b.WriteByte(' ')
		b.WriteString(color.New(color.FgHiBlack).Sprintf("[%s]", entry.LoggerName))
	}
	if entry.Message != "" {
		b.WriteByte(' ')
		b.WriteString(entry.Message)
	}
	return b.String()
}

func prettyValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any, []any:
		indented, err := json.MarshalIndent(t, "    ", "  ")
		if err != nil {
			break
		}
		return string(indented)
	}
	compact, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(compact)
}

func levelColor(l zapcore.Level) *color.Color {
	switch l {
	case zapcore.DebugLevel:
		return color.New(color.FgCyan)
	case zapcore.InfoLevel:
		return color.New(color.FgGreen)
	case zapcore.WarnLevel:
		return color.New(color.FgYellow)
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return color.New(color.FgRed, color.Bold)
	}
	return color.New(color.FgMagenta)
}

func fieldKeyColor(l zapcore.Level) *color.Color {
	if l >= zapcore.ErrorLevel {
		return color.New(color.FgRed)
	}
	if l == zapcore.WarnLevel {
		return color.New(color.FgYellow)
	}
	return color.New(color.FgHiCyan)
}
