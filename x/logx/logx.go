// Package logx writes short levelled key/value lines in the "[svc] msg k=v"
// shape used across the firmware. It avoids fmt so MCU builds stay small.
package logx

import (
	"io"
	"sync"

	"pioblink/x/conv"
)

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelTags = [...]string{"D", "I", "W", "E"}

var (
	mu       sync.Mutex
	out      io.Writer = console{}
	minLevel Level     = LevelInfo
)

// console forwards to the runtime's print builtin (stderr on host, the
// board's default serial on TinyGo).
type console struct{}

func (console) Write(p []byte) (int, error) {
	print(string(p))
	return len(p), nil
}

// SetOutput replaces the destination for all loggers. A nil w restores the
// console.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = console{}
	}
	out = w
}

func SetLevel(l Level) {
	mu.Lock()
	minLevel = l
	mu.Unlock()
}

// Logger is a tagged handle; the zero value logs without a tag.
type Logger struct {
	tag string
}

func New(tag string) Logger { return Logger{tag: tag} }

func (l Logger) Debug(msg string, kv ...any) { l.log(LevelDebug, msg, kv) }
func (l Logger) Info(msg string, kv ...any)  { l.log(LevelInfo, msg, kv) }
func (l Logger) Warn(msg string, kv ...any)  { l.log(LevelWarn, msg, kv) }
func (l Logger) Error(msg string, kv ...any) { l.log(LevelError, msg, kv) }

func (l Logger) log(lv Level, msg string, kv []any) {
	mu.Lock()
	defer mu.Unlock()
	if lv < minLevel {
		return
	}
	buf := make([]byte, 0, 64)
	buf = append(buf, levelTags[lv]...)
	buf = append(buf, ' ')
	if l.tag != "" {
		buf = append(buf, '[')
		buf = append(buf, l.tag...)
		buf = append(buf, "] "...)
	}
	buf = append(buf, msg...)
	for i := 0; i < len(kv); i += 2 {
		buf = append(buf, ' ')
		key, _ := kv[i].(string)
		if key == "" {
			key = "?"
		}
		buf = append(buf, key...)
		buf = append(buf, '=')
		if i+1 < len(kv) {
			buf = appendValue(buf, kv[i+1])
		} else {
			buf = append(buf, "(missing)"...)
		}
	}
	buf = append(buf, '\n')
	_, _ = out.Write(buf)
}

// Hex logs as a 0x-prefixed 32-bit register value.
type Hex uint32

func appendValue(buf []byte, v any) []byte {
	switch x := v.(type) {
	case nil:
		return append(buf, "nil"...)
	case string:
		return append(buf, x...)
	case bool:
		return conv.AppendBool(buf, x)
	case Hex:
		return conv.AppendHex32(buf, uint32(x))
	case int:
		return conv.AppendInt(buf, int64(x))
	case int32:
		return conv.AppendInt(buf, int64(x))
	case int64:
		return conv.AppendInt(buf, x)
	case uint8:
		return conv.AppendUint(buf, uint64(x))
	case uint16:
		return conv.AppendUint(buf, uint64(x))
	case uint32:
		return conv.AppendUint(buf, uint64(x))
	case uint64:
		return conv.AppendUint(buf, x)
	case error:
		return append(buf, x.Error()...)
	case interface{ String() string }:
		return append(buf, x.String()...)
	default:
		return append(buf, '?')
	}
}
