package confnorm

import "strings"

// FolderKind selects which configured root a path-bearing option is confined to.
type FolderKind int

const (
	FolderDownloads FolderKind = iota + 1
	FolderArchive
	FolderCookies
)

// String returns the folder kind name used in logs and API payloads.
func (k FolderKind) String() string {
	switch k {
	case FolderDownloads:
		return "downloads"
	case FolderArchive:
		return "archive"
	case FolderCookies:
		return "cookies"
	default:
		return "unknown"
	}
}

// Folders holds the server-controlled roots. Values are used verbatim as
// string prefixes; no separator normalization is applied.
type Folders struct {
	Downloads string
	Archive   string
	Cookies   string
}

// Root returns the folder string for kind.
func (f Folders) Root(kind FolderKind) string {
	switch kind {
	case FolderDownloads:
		return f.Downloads
	case FolderArchive:
		return f.Archive
	case FolderCookies:
		return f.Cookies
	default:
		return ""
	}
}

// Rule describes a path-bearing option.
type Rule struct {
	Folder FolderKind
	// Labelled enables the yt-dlp "label:path" value form (--paths).
	Labelled bool
}

// OptionTable is the explicit lookup of options the tokenizer and rewriter
// care about. Path-bearing options always take a value; flags never do.
// Options found in neither set keep the lenient behaviour of gluing the
// following non-option word.
type OptionTable struct {
	paths map[string]Rule
	flags map[string]struct{}
}

// NewOptionTable builds a table from path rules and value-less flag names.
func NewOptionTable(paths map[string]Rule, flags []string) OptionTable {
	t := OptionTable{
		paths: make(map[string]Rule, len(paths)),
		flags: make(map[string]struct{}, len(flags)),
	}
	for name, r := range paths {
		t.paths[name] = r
	}
	for _, f := range flags {
		t.flags[f] = struct{}{}
	}
	return t
}

// DefaultOptionTable returns the path-bearing options yt-dlp accepts in a
// config file together with its common boolean switches.
func DefaultOptionTable() OptionTable {
	return NewOptionTable(map[string]Rule{
		"-o":                 {Folder: FolderDownloads},
		"--output":           {Folder: FolderDownloads},
		"-P":                 {Folder: FolderArchive, Labelled: true},
		"--paths":            {Folder: FolderArchive, Labelled: true},
		"--download-archive": {Folder: FolderArchive},
	}, defaultFlags)
}

// WithPath returns a copy of the table with name mapped to r.
func (t OptionTable) WithPath(name string, r Rule) OptionTable {
	cp := NewOptionTable(t.paths, nil)
	for f := range t.flags {
		cp.flags[f] = struct{}{}
	}
	cp.paths[name] = r
	delete(cp.flags, name)
	return cp
}

// Lookup returns the rule for a path-bearing option name.
func (t OptionTable) Lookup(name string) (Rule, bool) {
	r, ok := t.paths[name]
	return r, ok
}

// IsFlag reports whether name is a known option that takes no value.
func (t OptionTable) IsFlag(name string) bool {
	_, ok := t.flags[name]
	return ok
}

// takesValue decides whether the bare option word tok swallows the next word.
func (t OptionTable) takesValue(tok string) bool {
	if !strings.HasPrefix(tok, "-") || tok == "-" || tok == "--" {
		return false
	}
	if strings.ContainsRune(tok, '=') {
		return false
	}
	if _, ok := t.paths[tok]; ok {
		return true
	}
	return !t.IsFlag(tok)
}

// optionName extracts the option part of a token ("--output" from
// `--output "x"` or `--output=x`).
func optionName(tok string) string {
	end := strings.IndexAny(tok, " \t=")
	if end < 0 {
		return tok
	}
	return tok[:end]
}

var defaultFlags = []string{
	"-h", "--help", "-U", "--update", "--no-update", "-i", "--ignore-errors",
	"--no-abort-on-error", "--abort-on-error", "--dump-user-agent",
	"--list-extractors", "--extractor-descriptions", "--ignore-config",
	"--no-config", "--no-config-locations", "--flat-playlist", "--no-flat-playlist",
	"--live-from-start", "--no-live-from-start", "--mark-watched", "--no-mark-watched",
	"--no-colors", "--no-playlist", "--yes-playlist", "--no-download-archive",
	"--break-on-existing", "--no-break-on-existing", "--break-per-input",
	"--no-break-per-input", "--skip-playlist-after-errors-reset",
	"--hls-use-mpegts", "--no-hls-use-mpegts", "--lazy-playlist", "--no-lazy-playlist",
	"--playlist-random", "-w", "--no-overwrites", "--force-overwrites",
	"--no-force-overwrites", "-c", "--continue", "--no-continue", "--part",
	"--no-part", "--mtime", "--no-mtime", "--write-description",
	"--no-write-description", "--write-info-json", "--no-write-info-json",
	"--write-playlist-metafiles", "--no-write-playlist-metafiles",
	"--clean-info-json", "--no-clean-info-json", "--write-comments",
	"--no-write-comments", "--no-cookies", "--no-cookies-from-browser",
	"--no-cache-dir", "--rm-cache-dir", "--write-thumbnail", "--no-write-thumbnail",
	"--write-all-thumbnails", "--list-thumbnails", "--write-link",
	"--write-url-link", "--write-webloc-link", "--write-desktop-link",
	"-q", "--quiet", "--no-quiet", "--no-warnings", "-s", "--simulate",
	"--no-simulate", "--ignore-no-formats-error", "--no-ignore-no-formats-error",
	"--skip-download", "-j", "--dump-json", "-J", "--dump-single-json",
	"--force-write-archive", "--newline", "--no-progress", "--progress",
	"--console-title", "-v", "--verbose", "--dump-pages", "--write-pages",
	"--print-traffic", "--no-check-certificates", "--prefer-insecure",
	"--legacy-server-connect", "--bidi-workaround", "--video-multistreams",
	"--no-video-multistreams", "--audio-multistreams", "--no-audio-multistreams",
	"--prefer-free-formats", "--no-prefer-free-formats", "--check-formats",
	"--check-all-formats", "--no-check-formats", "-F", "--list-formats",
	"--write-subs", "--no-write-subs", "--write-auto-subs", "--no-write-auto-subs",
	"--list-subs", "-x", "--extract-audio", "-k", "--keep-video", "--no-keep-video",
	"--post-overwrites", "--no-post-overwrites", "--embed-subs", "--no-embed-subs",
	"--embed-thumbnail", "--no-embed-thumbnail", "--embed-metadata",
	"--no-embed-metadata", "--add-metadata", "--no-add-metadata",
	"--embed-chapters", "--no-embed-chapters", "--embed-info-json",
	"--no-embed-info-json", "--xattrs", "--split-chapters", "--no-split-chapters",
	"--force-keyframes-at-cuts", "--no-force-keyframes-at-cuts",
	"--no-exec", "--restrict-filenames", "--no-restrict-filenames",
	"--windows-filenames", "--no-windows-filenames", "--no-sponsorblock",
	"--allow-dynamic-mpd", "--ignore-dynamic-mpd", "--hls-split-discontinuity",
	"--no-hls-split-discontinuity", "--geo-bypass", "--no-geo-bypass",
	"--include-ads", "--no-include-ads", "--no-batch-file",
}
