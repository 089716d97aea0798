package processrunner

import "strings"

// cmdMetaChars are interpreted by cmd.exe even inside quoted arguments.
const cmdMetaChars = "()%!^\"<>&|"

// QuoteArgument escapes arg following the Windows argv rules so that it
// survives CommandLineToArgvW unchanged. For scripts the result is also
// escaped for one round of cmd.exe parsing.
func QuoteArgument(arg string, isScript bool) string {
	quoted := quoteArgv(arg)
	if !isScript {
		return quoted
	}
	var b strings.Builder
	for _, r := range quoted {
		if strings.ContainsRune(cmdMetaChars, r) {
			b.WriteByte('^')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CommandLine joins the quoted arguments with single spaces.
func CommandLine(args []string, isScript bool) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = QuoteArgument(a, isScript)
	}
	return strings.Join(quoted, " ")
}

func quoteArgv(arg string) string {
	if arg == "" {
		return `""`
	}
	if !strings.ContainsAny(arg, " \t\n\v\"") {
		return arg
	}

	var b strings.Builder
	b.WriteByte('"')
	backslashes := 0
	for i := 0; i < len(arg); i++ {
		c := arg[i]
		switch c {
		case '\\':
			backslashes++
			continue
		case '"':
			// Backslashes before a quote are doubled, then the quote escaped.
			b.WriteString(strings.Repeat(`\`, backslashes*2+1))
		default:
			b.WriteString(strings.Repeat(`\`, backslashes))
		}
		backslashes = 0
		b.WriteByte(c)
	}
	// Trailing backslashes precede the closing quote.
	b.WriteString(strings.Repeat(`\`, backslashes*2))
	b.WriteByte('"')
	return b.String()
}
