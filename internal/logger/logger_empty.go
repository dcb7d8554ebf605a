//go:build logless

package logger

import "time"

// EmptyLog no-ops every call so a logless build pays nothing for logging.
type EmptyLog struct{}

var Log = EmptyLog{}

func SetLevel(int) {}

func (l EmptyLog) Debug() EmptyLog { return l }
func (l EmptyLog) Info() EmptyLog  { return l }
func (l EmptyLog) Warn() EmptyLog  { return l }
func (l EmptyLog) Error() EmptyLog { return l }
func (l EmptyLog) Fatal() EmptyLog { return l }
func (l EmptyLog) Trace() EmptyLog { return l }

func (l EmptyLog) Msg(string)          {}
func (l EmptyLog) Msgf(string, ...any) {}
func (l EmptyLog) Err(error) EmptyLog  { return l }

func (l EmptyLog) Str(string, string) EmptyLog       { return l }
func (l EmptyLog) Int(string, int) EmptyLog          { return l }
func (l EmptyLog) Float64(string, float64) EmptyLog  { return l }
func (l EmptyLog) Bool(string, bool) EmptyLog        { return l }
func (l EmptyLog) Dur(string, time.Duration) EmptyLog { return l }
