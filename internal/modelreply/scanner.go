package modelreply

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// fields holds the flat key/value content of a scanned reply object. String
// and string-array values are kept; nested objects and non-string array
// elements are skipped.
type fields struct {
	strings map[string]string
	lists   map[string][]string
}

func (f fields) text(key string) string { return f.strings[key] }

func (f fields) list(key string) []string { return f.lists[key] }

// scan extracts the outermost {...} object from raw model output and parses it
// as a flat object. Models routinely wrap their JSON in prose or code fences,
// so everything before the first '{' and after the last '}' is discarded.
func scan(raw string) (fields, error) {
	out := fields{strings: make(map[string]string), lists: make(map[string][]string)}

	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return out, errors.New("no JSON object in reply")
	}
	s := &scanner{input: raw[start : end+1]}

	s.expect('{')
	s.skipSpace()
	if s.peek() == '}' {
		return out, nil
	}
	for {
		s.skipSpace()
		key, err := s.readString()
		if err != nil {
			return out, fmt.Errorf("object key: %w", err)
		}
		s.skipSpace()
		if !s.expect(':') {
			return out, fmt.Errorf("missing ':' after key %q", key)
		}
		s.skipSpace()
		switch s.peek() {
		case '"':
			value, err := s.readString()
			if err != nil {
				return out, fmt.Errorf("value for %q: %w", key, err)
			}
			out.strings[key] = value
		case '[':
			values, err := s.readStringArray()
			if err != nil {
				return out, fmt.Errorf("array for %q: %w", key, err)
			}
			out.lists[key] = values
		case '{':
			if err := s.skipValue(); err != nil {
				return out, fmt.Errorf("nested object for %q: %w", key, err)
			}
		default:
			out.strings[key] = s.readBareToken()
		}
		s.skipSpace()
		switch s.peek() {
		case ',':
			s.pos++
		case '}', 0:
			return out, nil
		default:
			return out, fmt.Errorf("unexpected character %q after value for %q", s.peek(), key)
		}
	}
}

type scanner struct {
	input string
	pos   int
}

func (s *scanner) peek() byte {
	if s.pos >= len(s.input) {
		return 0
	}
	return s.input[s.pos]
}

func (s *scanner) expect(ch byte) bool {
	if s.peek() != ch {
		return false
	}
	s.pos++
	return true
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.input) {
		switch s.input[s.pos] {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

// readString consumes a quoted string, unescaping \" \\ \/ \n \t \r and
// \uXXXX sequences.
func (s *scanner) readString() (string, error) {
	if !s.expect('"') {
		return "", errors.New("expected opening quote")
	}
	var b strings.Builder
	for s.pos < len(s.input) {
		ch := s.input[s.pos]
		switch ch {
		case '"':
			s.pos++
			return b.String(), nil
		case '\\':
			s.pos++
			if s.pos >= len(s.input) {
				return "", errors.New("truncated escape")
			}
			esc := s.input[s.pos]
			s.pos++
			switch esc {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case '/':
				b.WriteByte('/')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b', 'f':
				b.WriteByte(' ')
			case 'u':
				if s.pos+4 > len(s.input) {
					return "", errors.New("truncated \\u escape")
				}
				code, err := strconv.ParseUint(s.input[s.pos:s.pos+4], 16, 32)
				if err != nil {
					return "", fmt.Errorf("bad \\u escape: %w", err)
				}
				s.pos += 4
				b.WriteRune(decodeRune(rune(code)))
			default:
				// Unknown escape: keep the literal character.
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(ch)
			s.pos++
		}
	}
	return "", errors.New("unterminated string")
}

func decodeRune(r rune) rune {
	if !utf8.ValidRune(r) {
		return utf8.RuneError
	}
	return r
}

// readStringArray consumes a [...] array, keeping string elements and
// silently dropping everything else.
func (s *scanner) readStringArray() ([]string, error) {
	if !s.expect('[') {
		return nil, errors.New("expected opening bracket")
	}
	var values []string
	for {
		s.skipSpace()
		switch s.peek() {
		case ']':
			s.pos++
			return values, nil
		case '"':
			value, err := s.readString()
			if err != nil {
				return nil, err
			}
			values = append(values, value)
		case '{', '[':
			if err := s.skipValue(); err != nil {
				return nil, err
			}
		case 0:
			return nil, errors.New("unterminated array")
		default:
			s.readBareToken()
		}
		s.skipSpace()
		if s.peek() == ',' {
			s.pos++
		}
	}
}

// skipValue consumes a balanced {...} or [...] without interpreting it,
// tracking strings so braces inside them do not confuse the depth count.
func (s *scanner) skipValue() error {
	depth := 0
	for s.pos < len(s.input) {
		switch s.input[s.pos] {
		case '{', '[':
			depth++
			s.pos++
		case '}', ']':
			depth--
			s.pos++
			if depth == 0 {
				return nil
			}
		case '"':
			if _, err := s.readString(); err != nil {
				return err
			}
		default:
			s.pos++
		}
	}
	return errors.New("unterminated nested value")
}

// readBareToken consumes a number/bool/null token up to the next delimiter.
func (s *scanner) readBareToken() string {
	start := s.pos
	for s.pos < len(s.input) {
		switch s.input[s.pos] {
		case ',', '}', ']', ' ', '\t', '\n', '\r':
			return s.input[start:s.pos]
		}
		s.pos++
	}
	return s.input[start:s.pos]
}
