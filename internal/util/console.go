package util

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// ConsoleTimeFormat is the bracketed timestamp printed on operator lines.
const ConsoleTimeFormat = "[02/01/2006 15:04:05]"

const (
	ansiGreen = "\x1b[92m"
	ansiRed   = "\x1b[91m"
	ansiReset = "\x1b[0m"
)

// Console is the operator-facing channel: short timestamped status lines,
// success in green and failure in red.
type Console struct {
	ok   zerolog.Logger
	fail zerolog.Logger
	info zerolog.Logger
}

// NewConsole writes to w. Colors are dropped when noColor is set.
func NewConsole(w io.Writer, noColor bool) *Console {
	return &Console{
		ok:   consoleLogger(w, ansiGreen, noColor),
		fail: consoleLogger(w, ansiRed, noColor),
		info: consoleLogger(w, "", noColor),
	}
}

func (c *Console) Success(format string, args ...interface{}) {
	c.ok.Log().Msgf(format, args...)
}

func (c *Console) Failure(format string, args ...interface{}) {
	c.fail.Log().Msgf(format, args...)
}

func (c *Console) Info(format string, args ...interface{}) {
	c.info.Log().Msgf(format, args...)
}

func consoleLogger(w io.Writer, color string, noColor bool) zerolog.Logger {
	paint := func(s string) string {
		if noColor || color == "" {
			return s
		}
		return color + s + ansiReset
	}
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
		FormatTimestamp: func(i interface{}) string {
			ts, err := time.Parse(zerolog.TimeFieldFormat, fmt.Sprint(i))
			if err != nil {
				return paint(fmt.Sprint(i))
			}
			return paint(ts.Local().Format(ConsoleTimeFormat))
		},
		FormatMessage: func(i interface{}) string {
			return paint(fmt.Sprint(i))
		},
	}
	return zerolog.New(out).With().Timestamp().Logger()
}
