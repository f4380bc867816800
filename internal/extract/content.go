package extract

import (
	"strconv"
	"strings"
)

// operand is one value on the content stream operand stack.
type operand struct {
	str   string
	num   float64
	isNum bool
	array []operand
}

// Kerning adjustments inside TJ arrays below this value (in thousandths of
// an em) are wide enough to read as a word break.
const tjSpaceThreshold = -200

// pageText collects the strings shown by text operators of one content
// stream. Text positioning that moves to a new line starts a new line.
func pageText(content []byte) string {
	var (
		out   strings.Builder
		stack []operand
		arr   []operand
		inArr bool
	)
	newline := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}
	push := func(o operand) {
		if inArr {
			arr = append(arr, o)
			return
		}
		stack = append(stack, o)
	}
	lastString := func() string {
		for i := len(stack) - 1; i >= 0; i-- {
			if !stack[i].isNum && stack[i].array == nil {
				return stack[i].str
			}
		}
		return ""
	}

	lx := &lexer{data: content}
	for {
		tok, kind := lx.next()
		if kind == tokEOF {
			break
		}
		switch kind {
		case tokString:
			push(operand{str: tok})
		case tokNumber:
			n, _ := strconv.ParseFloat(tok, 64)
			push(operand{num: n, isNum: true})
		case tokArrayStart:
			inArr, arr = true, nil
		case tokArrayEnd:
			inArr = false
			stack = append(stack, operand{array: arr})
		case tokName:
			push(operand{})
		case tokOperator:
			switch tok {
			case "Tj":
				out.WriteString(lastString())
			case "'", `"`:
				newline()
				out.WriteString(lastString())
			case "TJ":
				if len(stack) > 0 {
					writeTJ(&out, stack[len(stack)-1].array)
				}
			case "Td", "TD":
				if len(stack) >= 2 && stack[len(stack)-1].num != 0 {
					newline()
				} else if out.Len() > 0 && !strings.HasSuffix(out.String(), " ") {
					out.WriteByte(' ')
				}
			case "T*", "ET":
				newline()
			case "ID":
				lx.skipInlineImage()
			}
			stack = stack[:0]
		}
	}
	return strings.TrimSpace(out.String())
}

func writeTJ(out *strings.Builder, arr []operand) {
	for _, o := range arr {
		if o.isNum {
			if o.num < tjSpaceThreshold {
				out.WriteByte(' ')
			}
			continue
		}
		out.WriteString(o.str)
	}
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString
	tokNumber
	tokName
	tokArrayStart
	tokArrayEnd
	tokOperator
)

type lexer struct {
	data []byte
	pos  int
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelim(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func (l *lexer) next() (string, tokenKind) {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		case c == '(':
			l.pos++
			return l.literal(), tokString
		case c == '<':
			if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
				l.pos += 2
				continue
			}
			l.pos++
			return l.hex(), tokString
		case c == '>':
			l.pos++
		case c == '[':
			l.pos++
			return "", tokArrayStart
		case c == ']':
			l.pos++
			return "", tokArrayEnd
		case c == '{' || c == '}' || c == ')':
			l.pos++
		case c == '/':
			l.pos++
			return l.word(), tokName
		default:
			w := l.word()
			if w == "" {
				l.pos++
				continue
			}
			if (w[0] >= '0' && w[0] <= '9') || w[0] == '-' || w[0] == '+' || w[0] == '.' {
				return w, tokNumber
			}
			return w, tokOperator
		}
	}
	return "", tokEOF
}

func (l *lexer) word() string {
	start := l.pos
	for l.pos < len(l.data) && !isSpace(l.data[l.pos]) && !isDelim(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// literal reads a (string) body after the opening parenthesis. Bytes are
// decoded as Latin-1, which covers the standard single-byte encodings.
func (l *lexer) literal() string {
	var b []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return latin1(b)
			}
		case '\\':
			if l.pos >= len(l.data) {
				continue
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			case '\r', '\n':
				if e == '\r' && l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
				continue
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '7'; i++ {
						v = v*8 + int(l.data[l.pos]-'0')
						l.pos++
					}
					c = byte(v)
				} else {
					c = e
				}
			}
		}
		b = append(b, c)
	}
	return latin1(b)
}

func (l *lexer) hex() string {
	var b []byte
	var hi byte
	half := false
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		if c == '>' {
			break
		}
		v, ok := hexVal(c)
		if !ok {
			continue
		}
		if half {
			b = append(b, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		b = append(b, hi<<4)
	}
	printable := b[:0]
	for _, c := range b {
		if c >= 0x20 || c == '\n' || c == '\t' {
			printable = append(printable, c)
		}
	}
	return latin1(printable)
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// skipInlineImage moves past binary inline image data up to the EI operator.
func (l *lexer) skipInlineImage() {
	for i := l.pos; i+2 < len(l.data); i++ {
		if isSpace(l.data[i]) && l.data[i+1] == 'E' && l.data[i+2] == 'I' &&
			(i+3 == len(l.data) || isSpace(l.data[i+3])) {
			l.pos = i + 3
			return
		}
	}
	l.pos = len(l.data)
}

func latin1(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}
