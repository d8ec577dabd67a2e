// Package protocol implements the ASCII line protocol the winch controller
// speaks over its serial port. A command is a single lower-case verb
// followed by up to four signed integer arguments, one command per line:
//
//	a 100 200 300 400
//	v -500
//	ping
//
// Replies use the same shape. Lines starting with '#' are comments and
// parse to an empty command. The parser allocates only the argument slice,
// so it is usable from the TinyGo targets.
package protocol

import "strconv"

// MaxArgs is the most arguments a command line may carry, one per axis.
const MaxArgs = 4

// Command is one parsed protocol line.
type Command struct {
	Verb string
	Args []int64
}

// Empty reports whether the line held no command (blank or comment).
func (c Command) Empty() bool {
	return c.Verb == ""
}

// Parse scans one protocol line. Verbs are runs of letters; arguments are
// signed decimal integers separated by spaces or tabs.
func Parse(line string) (Command, error) {
	var cmd Command

	i := skipSpace(line, 0)
	if i >= len(line) || line[i] == '#' {
		return cmd, nil
	}

	start := i
	for i < len(line) && isLetter(line[i]) {
		i++
	}
	if i == start {
		return cmd, &ParseError{Line: line, Pos: i, Reason: "expected verb"}
	}
	cmd.Verb = line[start:i]

	for {
		i = skipSpace(line, i)
		if i >= len(line) || line[i] == '#' {
			break
		}
		if len(cmd.Args) >= MaxArgs {
			return Command{}, &ParseError{Line: line, Pos: i, Reason: "too many arguments"}
		}
		v, next, ok := parseInt(line, i)
		if !ok {
			return Command{}, &ParseError{Line: line, Pos: i, Reason: "expected integer"}
		}
		cmd.Args = append(cmd.Args, v)
		i = next
	}
	return cmd, nil
}

// ParseError describes a malformed protocol line.
type ParseError struct {
	Line   string
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	return "protocol: " + e.Reason + " at column " + strconv.Itoa(e.Pos+1)
}

// FormatInts builds a reply line from a verb and integer values.
func FormatInts(verb string, vals ...int64) string {
	out := verb
	for _, v := range vals {
		out += " " + strconv.FormatInt(v, 10)
	}
	return out
}

// FormatError builds an error reply line.
func FormatError(msg string) string {
	return "err " + msg
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\r' || s[i] == '\n') {
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// parseInt scans a signed decimal integer starting at pos. It returns the
// value, the position after it, and whether anything was consumed.
func parseInt(s string, pos int) (int64, int, bool) {
	i := pos
	neg := false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	start := i
	var v int64
	for i < len(s) && isDigit(s[i]) {
		v = v*10 + int64(s[i]-'0')
		i++
	}
	if i == start {
		return 0, pos, false
	}
	// Trailing garbage glued to the number is an error ("12x").
	if i < len(s) && s[i] != ' ' && s[i] != '\t' && s[i] != '\r' && s[i] != '\n' && s[i] != '#' {
		return 0, pos, false
	}
	if neg {
		v = -v
	}
	return v, i, true
}
