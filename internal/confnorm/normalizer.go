package confnorm

import "strings"

// DefaultLineEnding separates emitted lines unless WithLineEnding overrides it.
const DefaultLineEnding = "\n"

// Normalizer holds the folder configuration and option table used to
// rewrite config text. The zero value is not usable; call New.
type Normalizer struct {
	folders        Folders
	table          OptionTable
	strictPrefix   bool
	confineCookies bool
	lineEnding     string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithOptionTable replaces the default option table.
func WithOptionTable(t OptionTable) Option {
	return func(n *Normalizer) { n.table = t }
}

// WithStrictPrefix makes the already-rooted check a path-prefix test
// instead of a substring test.
func WithStrictPrefix(strict bool) Option {
	return func(n *Normalizer) { n.strictPrefix = strict }
}

// WithCookiesConfinement adds --cookies to the table, rooted under the
// cookies folder.
func WithCookiesConfinement(enabled bool) Option {
	return func(n *Normalizer) { n.confineCookies = enabled }
}

// WithLineEnding sets the separator used when joining output lines.
// An empty value keeps the default.
func WithLineEnding(eol string) Option {
	return func(n *Normalizer) {
		if eol != "" {
			n.lineEnding = eol
		}
	}
}

// New creates a Normalizer for the given folders.
func New(folders Folders, opts ...Option) *Normalizer {
	n := &Normalizer{
		folders:    folders,
		table:      DefaultOptionTable(),
		lineEnding: DefaultLineEnding,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.confineCookies {
		n.table = n.table.WithPath("--cookies", Rule{Folder: FolderCookies})
	}
	return n
}

// Folders returns the folder configuration the normalizer was built with.
func (n *Normalizer) Folders() Folders { return n.folders }

// Line is the result of normalizing one physical input line.
type Line struct {
	// Index is the 1-based position among the non-empty physical lines.
	Index  int      `json:"index"`
	Input  string   `json:"input"`
	Output []string `json:"output"`
	// PassThrough is set for blank and comment lines, which are emitted verbatim.
	PassThrough bool `json:"pass_through,omitempty"`
	Changed     bool `json:"changed"`
}

// IsPassThrough reports whether a physical line is emitted verbatim.
func IsPassThrough(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

// NormalizeLines normalizes text and reports the outcome per physical line.
func (n *Normalizer) NormalizeLines(text string) []Line {
	segments := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r'
	})

	lines := make([]Line, 0, len(segments))
	for i, seg := range segments {
		l := Line{Index: i + 1, Input: seg}
		if IsPassThrough(seg) {
			l.PassThrough = true
			l.Output = []string{seg}
			lines = append(lines, l)
			continue
		}

		tokens := n.Tokenize(seg)
		l.Output = make([]string, 0, len(tokens))
		for _, tok := range tokens {
			l.Output = append(l.Output, n.Rewrite(tok))
		}
		l.Changed = len(l.Output) != 1 || l.Output[0] != seg
		lines = append(lines, l)
	}
	return lines
}

// Normalize rewrites text into canonical form: comments and blank lines
// verbatim, every other line split into one argument per line with
// path-bearing values rooted under their folder.
func (n *Normalizer) Normalize(text string) string {
	var out []string
	for _, l := range n.NormalizeLines(text) {
		out = append(out, l.Output...)
	}
	return strings.Join(out, n.lineEnding)
}

// Changed reports whether normalizing text would alter it.
func (n *Normalizer) Changed(text string) bool {
	return n.Normalize(text) != text
}
