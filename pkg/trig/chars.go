package trig

// Character classes of the Turtle family grammar.

func isWhitespace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isHex(c rune) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// isPNCharsBase checks PN_CHARS_BASE
func isPNCharsBase(r rune) bool {
	return (r >= 'A' && r <= 'Z') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 0x00C0 && r <= 0x00D6) ||
		(r >= 0x00D8 && r <= 0x00F6) ||
		(r >= 0x00F8 && r <= 0x02FF) ||
		(r >= 0x0370 && r <= 0x037D) ||
		(r >= 0x037F && r <= 0x1FFF) ||
		(r >= 0x200C && r <= 0x200D) ||
		(r >= 0x2070 && r <= 0x218F) ||
		(r >= 0x2C00 && r <= 0x2FEF) ||
		(r >= 0x3001 && r <= 0xD7FF) ||
		(r >= 0xF900 && r <= 0xFDCF) ||
		(r >= 0xFDF0 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0xEFFFF)
}

// isPNCharsU checks PN_CHARS_U ::= PN_CHARS_BASE | '_'
func isPNCharsU(r rune) bool {
	return isPNCharsBase(r) || r == '_'
}

// isPNChars checks PN_CHARS ::= PN_CHARS_U | '-' | [0-9] | #x00B7 | [#x0300-#x036F] | [#x203F-#x2040]
func isPNChars(r rune) bool {
	return isPNCharsU(r) ||
		r == '-' ||
		isDigit(r) ||
		r == 0x00B7 ||
		(r >= 0x0300 && r <= 0x036F) ||
		(r >= 0x203F && r <= 0x2040)
}

func isPrefixStartChar(c rune) bool {
	return isPNCharsBase(c)
}

func isPrefixChar(c rune) bool {
	return isPNChars(c) || c == '.'
}

func isNameStartChar(c rune) bool {
	return c == '\\' || c == '%' || c == ':' || isPNCharsU(c) || isDigit(c)
}

func isNameChar(c rune) bool {
	return c == '\\' || c == '%' || c == ':' || c == '.' || isPNChars(c)
}

func isBlankNodeLabelStartChar(c rune) bool {
	return isPNCharsU(c) || isDigit(c)
}

func isBlankNodeLabelChar(c rune) bool {
	return isPNChars(c) || c == '.'
}

// isLocalEscapedChar checks the characters allowed after '\' in a local name (PN_LOCAL_ESC).
func isLocalEscapedChar(c rune) bool {
	switch c {
	case '_', '~', '.', '-', '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=', '/', '?', '#', '@', '%':
		return true
	}
	return false
}

func isLanguageStartChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isLanguageChar(c rune) bool {
	return isLanguageStartChar(c) || isDigit(c) || c == '-'
}
