package confnorm

import "strings"

// Rewrite confines the value of a path-bearing option token to its folder.
// Tokens that are not path-bearing, or carry no value, come back unchanged.
// The rewritten value is double-quoted, or single-quoted when it contains a
// double quote. A value holding both quote characters cannot be requoted and
// the token comes back unchanged.
func (n *Normalizer) Rewrite(token string) string {
	t := strings.TrimSpace(token)
	name := optionName(t)
	rule, ok := n.table.Lookup(name)
	if !ok || len(t) == len(name) {
		return token
	}

	folder := n.folders.Root(rule.Folder)
	if folder == "" {
		return token
	}

	raw := strings.TrimSpace(t[len(name)+1:])
	if raw == "" {
		return token
	}

	sep := " "
	if t[len(name)] == '=' {
		sep = "="
	}

	quoted, ok := quote(n.confine(rule, folder, unquote(raw)))
	if !ok {
		return token
	}
	return name + sep + quoted
}

func (n *Normalizer) confine(rule Rule, folder, value string) string {
	if rule.Labelled {
		if label, sub, ok := strings.Cut(value, ":"); ok && isLabel(label) {
			if n.rooted(sub, value, folder) {
				return value
			}
			return label + ":" + folder + strings.TrimPrefix(sub, "/")
		}
	}
	if n.rooted(value, value, folder) {
		return value
	}
	return folder + strings.TrimPrefix(value, "/")
}

// rooted decides whether a value is already under folder. The default is a
// substring test over the whole value; strict mode requires path to start
// with folder.
func (n *Normalizer) rooted(path, whole, folder string) bool {
	if n.strictPrefix {
		return strings.HasPrefix(path, folder)
	}
	return strings.Contains(whole, folder)
}

// unquote strips one matching pair of surrounding quotes and trims the
// result. An unterminated quote is kept as part of the value.
func unquote(v string) string {
	if len(v) < 2 {
		return v
	}
	q := v[0]
	if (q == '"' || q == '\'') && v[len(v)-1] == q {
		return strings.TrimSpace(v[1 : len(v)-1])
	}
	return v
}

// quote wraps v in the first quote character it does not contain.
func quote(v string) (string, bool) {
	switch {
	case !strings.Contains(v, `"`):
		return `"` + v + `"`, true
	case !strings.Contains(v, "'"):
		return "'" + v + "'", true
	default:
		return "", false
	}
}

// isLabel reports whether s looks like a --paths type label such as
// "home" or "temp" rather than part of a path.
func isLabel(s string) bool {
	return s != "" && !strings.ContainsAny(s, `/\"' `)
}
