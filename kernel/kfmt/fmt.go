package kfmt

import (
	"io"
	"unsafe"
)

// maxBufSize is the widest padded number that fmtInt can produce.
const maxBufSize = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	digits = "0123456789abcdef"

	// numBuf is filled right-to-left by fmtInt. One extra slot holds the
	// sign of a fully padded negative number.
	numBuf [maxBufSize + 1]byte

	// singleByte is a shared one-byte buffer used to push individual
	// characters through doWrite without allocating.
	singleByte = []byte(" ")

	// earlyPrintBuffer captures Printf output until an output sink is
	// attached.
	earlyPrintBuffer ringBuffer

	// outputSink receives Printf output. A nil sink redirects output to
	// earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink makes w the target for Printf and replays any output that was
// buffered while no sink was attached.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
}

// GetOutputSink returns the currently attached output sink or nil if Printf
// output is still being buffered.
func GetOutputSink() io.Writer {
	return outputSink
}

// Printf is an allocation-free subset of fmt.Printf that is safe to call from
// trap context where the Go allocator must not be touched.
//
// Supported verbs:
//
//	%s  string or []byte
//	%d  base 10 integer
//	%x  base 16 integer (lower-case)
//	%o  base 8 integer
//	%t  bool
//	%c  single character (uint8 or rune)
//	%%  literal percent sign
//
// A decimal width may precede the verb. Strings and base-10 integers are
// left-padded with spaces; base-8 and base-16 integers are left-padded with
// zeroes so that "0x%8x" always renders a full 32-bit address.
//
// Arguments are matched by type switch only; io.Stringer and pointers are not
// supported since both would drag reflect (and the allocator) into callers.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves like Printf but writes to w.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex int
		width    int
		verb     byte
	)

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			writeByte(w, format[i])
			continue
		}

		width = 0
		for i++; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}

		if i == len(format) {
			doWrite(w, errNoVerb)
			break
		}

		verb = format[i]
		switch verb {
		case '%':
			writeByte(w, '%')
			continue
		case 'd', 'x', 'o', 's', 't', 'c':
		default:
			doWrite(w, errNoVerb)
			continue
		}

		if argIndex >= len(args) {
			doWrite(w, errMissingArg)
			continue
		}

		arg := args[argIndex]
		argIndex++

		switch verb {
		case 'd':
			fmtInt(w, arg, 10, width)
		case 'x':
			fmtInt(w, arg, 16, width)
		case 'o':
			fmtInt(w, arg, 8, width)
		case 's':
			fmtString(w, arg, width)
		case 't':
			fmtBool(w, arg)
		case 'c':
			fmtChar(w, arg)
		}
	}

	for ; argIndex < len(args); argIndex++ {
		doWrite(w, errExtraArg)
	}
}

func fmtBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	switch {
	case !ok:
		doWrite(w, errWrongArgType)
	case b:
		doWrite(w, trueValue)
	default:
		doWrite(w, falseValue)
	}
}

func fmtChar(w io.Writer, v interface{}) {
	switch ch := v.(type) {
	case uint8:
		writeByte(w, ch)
	case rune:
		if ch < 0 || ch > 0x7f {
			ch = '?'
		}
		writeByte(w, byte(ch))
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtString writes a string or byte slice, left-padded with spaces up to
// width.
func fmtString(w io.Writer, v interface{}, width int) {
	switch s := v.(type) {
	case string:
		fmtRepeat(w, ' ', width-len(s))
		// Converting s to a []byte would allocate.
		for i := 0; i < len(s); i++ {
			writeByte(w, s[i])
		}
	case []byte:
		fmtRepeat(w, ' ', width-len(s))
		doWrite(w, s)
	default:
		doWrite(w, errWrongArgType)
	}
}

func fmtRepeat(w io.Writer, ch byte, count int) {
	for ; count > 0; count-- {
		writeByte(w, ch)
	}
}

// fmtInt writes v in the requested base. Base 10 output is padded with spaces
// (the sign sticks to the digits); base 8 and 16 output is padded with zeroes
// (the sign precedes the padding).
func fmtInt(w io.Writer, v interface{}, base uint64, width int) {
	var (
		u   uint64
		neg bool
	)

	switch n := v.(type) {
	case uint8:
		u = uint64(n)
	case uint16:
		u = uint64(n)
	case uint32:
		u = uint64(n)
	case uint64:
		u = n
	case uint:
		u = uint64(n)
	case uintptr:
		u = uint64(n)
	case int8:
		u, neg = abs(int64(n))
	case int16:
		u, neg = abs(int64(n))
	case int32:
		u, neg = abs(int64(n))
	case int64:
		u, neg = abs(n)
	case int:
		u, neg = abs(int64(n))
	default:
		doWrite(w, errWrongArgType)
		return
	}

	if width > maxBufSize-1 {
		width = maxBufSize - 1
	}

	pos := len(numBuf)
	for {
		pos--
		numBuf[pos] = digits[u%base]
		if u /= base; u == 0 {
			break
		}
	}

	signLen := 0
	if neg {
		signLen = 1
	}

	if base == 10 {
		if neg {
			pos--
			numBuf[pos] = '-'
		}
		for len(numBuf)-pos < width {
			pos--
			numBuf[pos] = ' '
		}
	} else {
		for len(numBuf)-pos+signLen < width {
			pos--
			numBuf[pos] = '0'
		}
		if neg {
			pos--
			numBuf[pos] = '-'
		}
	}

	doWrite(w, numBuf[pos:])
}

func abs(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}

func writeByte(w io.Writer, b byte) {
	singleByte[0] = b
	doWrite(w, singleByte)
}

// doWrite hides p from escape analysis. The sink is an interface value the
// compiler cannot see through, so without this indirection every caller of
// Printf would heap-allocate its buffers.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyPrintBuffer.Write(p)
	}
}

// noEscape hides a pointer from escape analysis (see runtime/stubs.go).
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
