package confnorm

import "strings"

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

// Tokenize splits one physical line into argument tokens.
//
// Quoted runs ("..." or '...') are copied literally with their quotes.
// An option that takes a value absorbs the next word, with the whitespace
// between them collapsed to a single space, unless the next word is
// itself an option or the line ends.
func (n *Normalizer) Tokenize(line string) []string {
	var (
		tokens []string
		cur    strings.Builder
		quote  byte
		glued  bool
	)

	flush := func() {
		if tok := cur.String(); strings.TrimSpace(tok) != "" {
			tokens = append(tokens, tok)
		}
		cur.Reset()
		glued = false
	}

	for i := 0; i < len(line); i++ {
		c := line[i]

		if quote != 0 {
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}

		switch {
		case c == '"' || c == '\'':
			quote = c
			cur.WriteByte(c)
		case isBlank(c):
			if cur.Len() == 0 {
				continue
			}
			if glued || !n.table.takesValue(cur.String()) {
				flush()
				continue
			}
			j := i + 1
			for j < len(line) && isBlank(line[j]) {
				j++
			}
			if j == len(line) || line[j] == '-' {
				flush()
			} else {
				cur.WriteByte(' ')
				glued = true
			}
			i = j - 1
		default:
			cur.WriteByte(c)
		}
	}
	flush()

	return tokens
}
