// Package parser converts a line of player input into an Input.
// Intentionally dumb: no NLP, just pattern matching.
package parser

import (
	"strconv"
	"strings"
)

// Kind classifies a line of input.
type Kind int

const (
	Empty Kind = iota
	Meta
	Number
	Text
)

// Input is a parsed line. Command and Arg are set for Meta, N for Number,
// Words for Text.
type Input struct {
	Kind    Kind
	Raw     string
	Command string
	Arg     string
	N       int
	Words   []string
}

// Text returns the normalized words joined by spaces.
func (in Input) Text() string {
	return strings.Join(in.Words, " ")
}

var metaAliases = map[string]string{
	"h":       "help",
	"?":       "help",
	"s":       "state",
	"status":  "state",
	"q":       "quit",
	"exit":    "quit",
	"restart": "new",
	"reset":   "new",
}

// MetaCommands lists the recognized meta commands.
var MetaCommands = []string{"help", "state", "save", "load", "new", "trace", "quit"}

var directionExpansions = map[string]string{
	"n": "north",
	"s": "south",
	"e": "east",
	"w": "west",
}

var directionNames = map[string]bool{
	"north": true, "south": true, "east": true, "west": true,
}

var verbAliases = map[string]string{
	// Travel
	"walk":   "go",
	"run":    "go",
	"move":   "go",
	"head":   "go",
	"travel": "go",
	"exit":   "leave",
	"inside": "enter",

	// Talk
	"chat":     "talk",
	"speak":    "talk",
	"greet":    "talk",
	"converse": "talk",

	// Give
	"offer":   "give",
	"hand":    "give",
	"present": "give",
	"gift":    "give",

	// Farm
	"sow":  "plant",
	"pick": "harvest",
	"reap": "harvest",

	// Shop
	"purchase": "buy",
	"get":      "buy",

	// Home
	"store": "stow",
	"put":   "stow",
	"take":  "retrieve",

	// Sleep
	"nap":  "sleep",
	"rest": "sleep",
	"bed":  "sleep",
}

// Gather shortcuts expand to the full action phrase.
var gatherShortcuts = map[string][]string{
	"mine":   {"go", "mining"},
	"fish":   {"go", "fishing"},
	"forage": {"go", "foraging"},
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true, "some": true,
}

// Parse converts a raw line into an Input.
func Parse(line string) Input {
	raw := strings.TrimSpace(line)
	if raw == "" {
		return Input{Kind: Empty}
	}

	if strings.HasPrefix(raw, "/") {
		cmd, arg, _ := strings.Cut(raw[1:], " ")
		cmd = strings.ToLower(cmd)
		if alias, ok := metaAliases[cmd]; ok {
			cmd = alias
		}
		return Input{Kind: Meta, Raw: raw, Command: cmd, Arg: strings.TrimSpace(arg)}
	}

	if n, err := strconv.Atoi(raw); err == nil {
		return Input{Kind: Number, Raw: raw, N: n}
	}

	return Input{Kind: Text, Raw: raw, Words: Normalize(raw)}
}

// Normalize lowercases, strips articles and punctuation and expands
// verb aliases and shortcuts. Action descriptions go through the same
// function so both sides share a vocabulary.
func Normalize(s string) []string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '(' || r == ')' || r == ',' || r == '.' || r == '!' || r == '?'
	})
	if len(words) == 0 {
		return nil
	}

	// Direction shortcut: bare "n", "east" → go <direction>.
	if len(words) == 1 {
		if dir, ok := directionExpansions[words[0]]; ok {
			return []string{"go", dir}
		}
		if directionNames[words[0]] {
			return []string{"go", words[0]}
		}
		if exp, ok := gatherShortcuts[words[0]]; ok {
			return append([]string{}, exp...)
		}
	}

	words = expandMultiWordVerbs(words)
	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}
	return stripArticles(words)
}

// expandMultiWordVerbs handles "talk with", "go inside", "pick up" etc.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}
	switch words[0] {
	case "talk", "speak", "chat":
		if words[1] == "with" {
			return append([]string{"talk", "to"}, words[2:]...)
		}
		if words[1] != "to" {
			return append([]string{"talk", "to"}, words[1:]...)
		}
	case "go":
		if words[1] == "inside" || words[1] == "into" || words[1] == "in" {
			return append([]string{"enter"}, words[2:]...)
		}
		if words[1] == "out" || words[1] == "outside" {
			return append([]string{"leave"}, words[2:]...)
		}
		if exp, ok := gatherShortcuts[words[1]]; ok && len(words) == 2 {
			return append([]string{}, exp...)
		}
	case "pick":
		if words[1] == "up" {
			return append([]string{"harvest"}, words[2:]...)
		}
	case "take":
		if words[1] == "out" {
			return append([]string{"retrieve"}, words[2:]...)
		}
	}
	return words
}

func stripArticles(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] {
			out = append(out, w)
		}
	}
	return out
}
