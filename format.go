package log

import (
	"bytes"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// serializer builds the text of one record: the line prefix followed by the
// rendered arguments.
type serializer struct {
	buf []byte
}

var serializerPool = sync.Pool{
	New: func() any {
		return &serializer{buf: make([]byte, 0, 512)}
	},
}

func getSerializer() *serializer {
	s := serializerPool.Get().(*serializer)
	s.buf = s.buf[:0]
	return s
}

func putSerializer(s *serializer) {
	// Keep oversized buffers out of the pool
	if cap(s.buf) > 64<<10 {
		return
	}
	serializerPool.Put(s)
}

// dumper renders values without a dedicated case in compact form.
var dumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// appendPrefix writes "yyyy-mm-dd hh:mm:ss.uuuuuu [file:line][SEV]: " and returns
// its length.
func (s *serializer) appendPrefix(cfg *Config, ts time.Time, file string, line int, sev Severity) int {
	if cfg.LogUTCTime {
		ts = ts.UTC()
	}
	year, month, dayOfMonth := ts.Date()
	hour, minute, sec := ts.Clock()

	if cfg.LogYearInPrefix {
		s.buf = appendPadded(s.buf, year, 4)
		s.buf = append(s.buf, '-')
	}
	s.buf = appendPadded(s.buf, int(month), 2)
	s.buf = append(s.buf, '-')
	s.buf = appendPadded(s.buf, dayOfMonth, 2)
	s.buf = append(s.buf, ' ')
	s.buf = appendPadded(s.buf, hour, 2)
	s.buf = append(s.buf, ':')
	s.buf = appendPadded(s.buf, minute, 2)
	s.buf = append(s.buf, ':')
	s.buf = appendPadded(s.buf, sec, 2)
	s.buf = append(s.buf, '.')
	s.buf = appendPadded(s.buf, ts.Nanosecond()/1000, 6)
	s.buf = append(s.buf, " ["...)
	s.buf = append(s.buf, basename(file)...)
	s.buf = append(s.buf, ':')
	s.buf = strconv.AppendInt(s.buf, int64(line), 10)
	s.buf = append(s.buf, "]["...)
	s.buf = append(s.buf, sev.String()...)
	s.buf = append(s.buf, "]: "...)
	return len(s.buf)
}

func appendPadded(buf []byte, v, width int) []byte {
	var tmp [20]byte
	digits := strconv.AppendInt(tmp[:0], int64(v), 10)
	for i := len(digits); i < width; i++ {
		buf = append(buf, '0')
	}
	return append(buf, digits...)
}

// appendArgs renders args separated by spaces.
func (s *serializer) appendArgs(args []any) {
	for i, arg := range args {
		if i > 0 {
			s.buf = append(s.buf, ' ')
		}
		s.writeValue(arg)
	}
}

// writeValue converts any value to its text representation, falling back to
// go-spew for types that are not explicitly supported.
func (s *serializer) writeValue(v any) {
	switch val := v.(type) {
	case string:
		s.buf = append(s.buf, val...)
	case []byte:
		s.buf = append(s.buf, val...)
	case int:
		s.buf = strconv.AppendInt(s.buf, int64(val), 10)
	case int32:
		s.buf = strconv.AppendInt(s.buf, int64(val), 10)
	case int64:
		s.buf = strconv.AppendInt(s.buf, val, 10)
	case uint:
		s.buf = strconv.AppendUint(s.buf, uint64(val), 10)
	case uint32:
		s.buf = strconv.AppendUint(s.buf, uint64(val), 10)
	case uint64:
		s.buf = strconv.AppendUint(s.buf, val, 10)
	case float32:
		s.buf = strconv.AppendFloat(s.buf, float64(val), 'f', -1, 32)
	case float64:
		s.buf = strconv.AppendFloat(s.buf, val, 'f', -1, 64)
	case bool:
		s.buf = strconv.AppendBool(s.buf, val)
	case nil:
		s.buf = append(s.buf, "nil"...)
	case time.Time:
		s.buf = val.AppendFormat(s.buf, time.RFC3339Nano)
	case time.Duration:
		s.buf = append(s.buf, val.String()...)
	case error:
		s.buf = append(s.buf, val.Error()...)
	case fmt.Stringer:
		s.buf = append(s.buf, val.String()...)
	default:
		var b bytes.Buffer
		dumper.Fdump(&b, val)
		// Trim trailing new line added by spew
		s.buf = append(s.buf, bytes.TrimSpace(b.Bytes())...)
	}
}
