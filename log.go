package quic

import (
	"io"
	"net"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goburrow/quic/transport"
)

// logLevel mirrors the original verbosity scale (client/server -v flag),
// mapped onto zap's levels so driver code keeps the same CLI contract while
// logging through a structured, leveled logger instead of a hand-rolled
// mutex-protected writer.
type logLevel int

// Log levels
const (
	levelOff logLevel = iota
	levelError
	levelInfo
	levelDebug
	levelTrace
)

func zapLevel(l logLevel) zapcore.Level {
	switch l {
	case levelError:
		return zapcore.ErrorLevel
	case levelInfo:
		return zapcore.InfoLevel
	case levelDebug, levelTrace:
		return zapcore.DebugLevel
	default:
		return zapcore.PanicLevel + 1 // above Panic: disables logging entirely
	}
}

// logger wraps a *zap.Logger. When the configured level is verbose enough to
// want per-packet detail (levelDebug and up) it also attaches a
// transport.LogEvent sink to connections via attachLogger.
type logger struct {
	level logLevel
	zl    *zap.Logger
}

func newLogger() *logger {
	return &logger{level: levelOff, zl: zap.NewNop()}
}

func (s *logger) setWriter(level logLevel, w io.Writer) {
	s.level = level
	if level == levelOff || w == nil {
		s.zl = zap.NewNop()
		return
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(w), zapLevel(level))
	s.zl = zap.New(core)
}

func (s *logger) log(level logLevel, msg string, fields ...zap.Field) {
	if s.zl == nil {
		return
	}
	s.zl.Check(zapLevel(level), msg).Write(fields...)
}

// attachLogger wires a connection's qlog-style events into this logger at
// Debug level. It is called once per handle, the first time the core
// Endpoint reports activity for it (see endpoint.go's pump).
func (s *logger) attachLogger(h transport.Handle, addr net.Addr, conn *transport.Conn) {
	if s.level < levelDebug || s.zl == nil {
		return
	}
	prefix := []zap.Field{
		zap.Stringer("remote_addr", addr),
		zap.Uint64("handle", uint64(h)),
	}
	tl := transactionLogger{logger: s, fields: prefix}
	conn.OnLogEvent(tl.logEvent)
}

type transactionLogger struct {
	logger *logger
	fields []zap.Field
}

func (s *transactionLogger) logEvent(e transport.LogEvent) {
	fields := make([]zap.Field, 0, len(s.fields)+len(e.Fields))
	fields = append(fields, s.fields...)
	for _, f := range e.Fields {
		if f.Str != "" {
			fields = append(fields, zap.String(f.Key, f.Str))
		} else {
			fields = append(fields, zap.Uint64(f.Key, f.Num))
		}
	}
	s.logger.log(levelDebug, e.Type, fields...)
}
