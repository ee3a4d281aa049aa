// Copyright (c) 2024 tgkit

package telegram

import (
	"regexp"
	"strings"
)

var argumentsRe = regexp.MustCompile(`^/\w+(@\w+)?\s?([\s\S]*)`)

// IsCommand reports whether text starts a bot command.
func IsCommand(text string) bool {
	return strings.HasPrefix(text, "/")
}

// ExtractCommand returns the command token of text without the leading
// slash and without a @botname suffix, or "" when text is not a command.
//
//	ExtractCommand("/help")           == "help"
//	ExtractCommand("/help@SomeBot")   == "help"
//	ExtractCommand("/search a b c")   == "search"
func ExtractCommand(text string) string {
	if !IsCommand(text) {
		return ""
	}
	token := strings.Fields(text)[0]
	token, _, _ = strings.Cut(token, "@")
	return token[1:]
}

// extractCommandMention returns the @botname suffix of the command
// token, "" when absent.
func extractCommandMention(text string) string {
	if !IsCommand(text) {
		return ""
	}
	token := strings.Fields(text)[0]
	_, mention, _ := strings.Cut(token, "@")
	return mention
}

// ExtractArguments returns everything after the command token, with the
// token and its separator stripped but the rest untouched.
//
//	ExtractArguments("/get name")          == "name"
//	ExtractArguments("/get")               == ""
//	ExtractArguments("/get@SomeBot name")  == "name"
func ExtractArguments(text string) string {
	if !IsCommand(text) {
		return ""
	}
	groups := argumentsRe.FindStringSubmatch(text)
	if groups == nil {
		return ""
	}
	return groups[2]
}

// SplitString chunks text into pieces of at most n runes each.
func SplitString(text string, n int) []string {
	if n <= 0 || text == "" {
		return []string{text}
	}
	runes := []rune(text)
	parts := make([]string, 0, (len(runes)+n-1)/n)
	for len(runes) > n {
		parts = append(parts, string(runes[:n]))
		runes = runes[n:]
	}
	return append(parts, string(runes))
}

// SmartSplit chunks text into pieces of at most n runes, preferring to
// break after a newline, then after a space, so words stay intact
// whenever the window contains a separator. Concatenating the parts
// reproduces the input exactly.
func SmartSplit(text string, n int) []string {
	if n <= 0 || len([]rune(text)) <= n {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > n {
		window := runes[:n]
		cut := lastIndexRune(window, '\n')
		if cut < 0 {
			cut = lastIndexRune(window, ' ')
		}
		if cut < 0 {
			cut = n - 1
		}
		// The separator stays with the left part so the split
		// round-trips.
		parts = append(parts, string(runes[:cut+1]))
		runes = runes[cut+1:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
