package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the console logger. Logs go to stderr so stdout only
// carries diagnostics and emitted artifacts.
func newLogger(level string) (*zap.Logger, error) {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	if isTerminal(os.Stderr) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	var threshold zapcore.Level
	switch level {
	case "none":
		return zap.NewNop(), nil
	case "normal", "":
		threshold = zapcore.InfoLevel
	case "debug":
		threshold = zapcore.DebugLevel
	default:
		return nil, fmt.Errorf("unsupported log level %q (must be none, normal or debug)", level)
	}
	core := zapcore.NewCore(newEncoder(ec), zapcore.Lock(os.Stderr), zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= threshold
	}))
	return zap.New(core).Named("aggsynth"), nil
}

// consoleEnc drops the errorVerbose field so wrapped errors print on one
// line.
type consoleEnc struct {
	zapcore.Encoder
}

func newEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return consoleEnc{zapcore.NewConsoleEncoder(cfg)}
}

func (c consoleEnc) Clone() zapcore.Encoder {
	return consoleEnc{c.Encoder.Clone()}
}

func (c consoleEnc) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	out := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			if e, ok := f.Interface.(error); ok {
				f.Interface = errors.New(e.Error())
			}
		}
		out = append(out, f)
	}
	return c.Encoder.EncodeEntry(ent, out)
}
