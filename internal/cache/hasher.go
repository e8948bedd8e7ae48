package cache

import (
	"encoding/hex"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ContentHash is a 16-char hex encoding of a 64-bit BLAKE2b digest over a
// source file's normalized text. Equal hashes mean equal semantic content
// modulo whitespace and comment-body edits; see HashSourceBytes for the
// exact normalization rules.
type ContentHash string

func (h ContentHash) IsZero() bool { return h == "" }

// HashSourceFile streams a C/C++ (or similar curly-brace language) source
// file and returns its ContentHash. It is whitespace/comment-insensitive:
// reindentation, collapsing runs of non-essential spaces, and rewording a
// comment body all leave the hash unchanged; changing the line count,
// touching a preprocessor directive, or editing a string/char literal body
// changes it.
func HashSourceFile(absPath string) (ContentHash, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", err
	}
	return HashSourceBytes(data), nil
}

// HashSourceBytes implements the normalization rules directly over an
// in-memory buffer (used by tests and by callers that already hold the
// bytes).
func HashSourceBytes(data []byte) ContentHash {
	h := newShortBlake2b() // 64-bit digest, collision resistance is not a goal

	text := string(data)
	lines := strings.Split(text, "\n")
	if strings.HasSuffix(text, "\n") && len(lines) > 0 {
		lines = lines[:len(lines)-1]
	}

	li := 0
	for li < len(lines) {
		line := strings.TrimSpace(lines[li])
		li++

		if strings.HasPrefix(line, "#") {
			h.Write([]byte(line))
			h.Write([]byte{'\n'})
			continue
		}

		var out []byte
		col := 0
		curLine := line

		for col < len(curLine) {
			c := curLine[col]

			if c == '/' && col+1 < len(curLine) && curLine[col+1] == '*' {
				out = append(out, '/', '*')
				var nlCount int
				nlCount, curLine, col, li = skipBlockComment(lines, li, curLine, col+2)
				for k := 0; k < nlCount; k++ {
					out = append(out, '\n')
				}
				out = append(out, '*', '/')
				continue
			}

			if c == '/' && col+1 < len(curLine) && curLine[col+1] == '/' {
				out = append(out, '/', '/')
				break
			}

			if c == '"' || c == '\'' {
				out = append(out, c)
				var content []byte
				content, curLine, col, li = skipQuotedLiteral(lines, li, curLine, col+1, c)
				out = append(out, content...)
				out = append(out, c)
				continue
			}

			if c == ' ' || c == '\t' {
				k := col
				for k < len(curLine) && (curLine[k] == ' ' || curLine[k] == '\t') {
					k++
				}
				var prev, next byte
				if len(out) > 0 {
					prev = out[len(out)-1]
				}
				if k < len(curLine) {
					next = curLine[k]
				}
				if isIdentChar(prev) && isIdentChar(next) {
					out = append(out, ' ')
				}
				col = k
				continue
			}

			out = append(out, c)
			col++
		}

		outLine := strings.TrimRight(string(out), " \t")
		h.Write([]byte(outLine))
		h.Write([]byte{'\n'})
	}

	return ContentHash(h.HexSum())
}

// shortBlake2b is the shared 64-bit BLAKE2b construction used both for
// ContentHash (over normalized source text) and the dep-hash (over an
// ordered dependency list, see hashDependencies).
type shortBlake2b struct {
	h interface {
		Write(p []byte) (int, error)
		Sum(b []byte) []byte
	}
}

func newShortBlake2b() shortBlake2b {
	h, _ := blake2b.New(8, nil)
	return shortBlake2b{h: h}
}

func (s shortBlake2b) Write(p []byte) { s.h.Write(p) }

func (s shortBlake2b) HexSum() string {
	return hex.EncodeToString(s.h.Sum(nil))
}

func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

// skipBlockComment scans forward (possibly across physical lines) looking
// for "*/". It returns the count of line boundaries crossed (so the caller
// can re-emit them as '\n' and preserve line-count sensitivity), plus the
// resume position.
func skipBlockComment(lines []string, li int, line string, col int) (newlineCount int, resumeLine string, resumeCol int, resumeLi int) {
	for {
		for col < len(line) {
			if strings.HasPrefix(line[col:], "*/") {
				return newlineCount, line, col + 2, li
			}
			col++
		}
		if li >= len(lines) {
			return newlineCount, "", 0, li
		}
		newlineCount++
		line = lines[li]
		li++
		col = 0
	}
}

// skipQuotedLiteral scans forward for the matching delim, honoring
// backslash escapes (including a trailing backslash as a line-continuation
// inside the literal). The literal body, including any embedded newlines,
// is returned verbatim.
func skipQuotedLiteral(lines []string, li int, line string, col int, delim byte) (content []byte, resumeLine string, resumeCol int, resumeLi int) {
	for {
		for col < len(line) {
			c := line[col]

			if c == '\\' {
				if col+1 < len(line) {
					content = append(content, line[col], line[col+1])
					col += 2
				} else if li < len(lines) {
					content = append(content, c, '\n')
					line = lines[li]
					li++
					col = 0
				} else {
					content = append(content, c)
					col++
				}
				continue
			}

			if c == delim {
				return content, line, col + 1, li
			}

			content = append(content, c)
			col++
		}

		if li >= len(lines) {
			return content, "", 0, li
		}
		content = append(content, '\n')
		line = lines[li]
		li++
		col = 0
	}
}
