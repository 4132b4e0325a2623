package confnorm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testNormalizer(opts ...Option) *Normalizer {
	return New(Folders{
		Downloads: "/data/downloads/",
		Archive:   "/data/archive/",
		Cookies:   "/data/cookies/",
	}, opts...)
}

func TestTokenize(t *testing.T) {
	n := testNormalizer()

	tests := []struct {
		name string
		line string
		want []string
	}{
		{"empty", "", nil},
		{"blank", "   \t  ", nil},
		{"single flag", "--no-playlist", []string{"--no-playlist"}},
		{"short path option glued", `-o "video.%(ext)s"`, []string{`-o "video.%(ext)s"`}},
		{"unknown long option keeps value", "--format best", []string{"--format best"}},
		{"quoted value with spaces", `--format best -o "out file.mp4"`, []string{"--format best", `-o "out file.mp4"`}},
		{"single quotes", `-o 'out file.mp4'`, []string{`-o 'out file.mp4'`}},
		{"mixed quotes kept literally", `-o "it's here"`, []string{`-o "it's here"`}},
		{"whitespace run collapses", "-o \t  clip.mp4", []string{"-o clip.mp4"}},
		{"option followed by option", "--format -o x", []string{"--format", "-o x"}},
		{"option at end of line", "--format best -o", []string{"--format best", "-o"}},
		{"trailing spaces after option", "-o   ", []string{"-o"}},
		{"known flag does not swallow", "--embed-thumbnail extra", []string{"--embed-thumbnail", "extra"}},
		{"short known flag", "-x best", []string{"-x", "best"}},
		{"equals form is complete", "--output=clip.mp4 foo", []string{"--output=clip.mp4", "foo"}},
		{"bare words", "foo bar", []string{"foo", "bar"}},
		{"value ends at next space", "--format best extra", []string{"--format best", "extra"}},
		{"unbalanced quote runs to end", `-o "open ended -x`, []string{`-o "open ended -x`}},
		{"tab separators", "--no-playlist\t-x", []string{"--no-playlist", "-x"}},
		{"leading whitespace ignored", "   -o clip.mp4", []string{"-o clip.mp4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, n.Tokenize(tt.line))
		})
	}
}

func TestTokenize_LongPathOptionsTakeValue(t *testing.T) {
	n := testNormalizer()

	for _, opt := range []string{"--output", "--paths", "--download-archive"} {
		got := n.Tokenize(opt + ` "x y"`)
		require.Equal(t, []string{opt + ` "x y"`}, got, opt)
	}
}

func TestTokenize_CustomTableFlag(t *testing.T) {
	table := NewOptionTable(map[string]Rule{"-o": {Folder: FolderDownloads}}, []string{"--format"})
	n := testNormalizer(WithOptionTable(table))

	require.Equal(t, []string{"--format", "best"}, n.Tokenize("--format best"))
}
