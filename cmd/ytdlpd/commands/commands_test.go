package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
)

// run parses args like main does and executes the selected command.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("ytdlpd"), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)

	ctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	err = ctx.Run(&Global{Stdout: &out, Stdin: strings.NewReader(stdin)}, &cli)
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	return path
}

func missingConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "ytdlpd.yaml")
}

func TestNormalize_PrintsResult(t *testing.T) {
	path := writeFile(t, "music.conf", "# music\n-x -o clip.mp4\n")

	out, err := run(t, "", "-c", missingConfig(t), "normalize", path)
	require.NoError(t, err)
	require.Equal(t, "# music\n-x\n-o \"/data/downloads/clip.mp4\"\n", out)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "# music\n-x -o clip.mp4\n", string(b))
}

func TestNormalize_FolderFlags(t *testing.T) {
	path := writeFile(t, "music.conf", "-o clip.mp4 --download-archive seen.txt")

	out, err := run(t, "", "-c", missingConfig(t), "normalize", "--downloads", "/srv/media/", "--archive", "/srv/archive/", path)
	require.NoError(t, err)
	require.Equal(t, "-o \"/srv/media/clip.mp4\"\n--download-archive \"/srv/archive/seen.txt\"\n", out)
}

func TestNormalize_FoldersFromConfigFile(t *testing.T) {
	cfgPath := writeFile(t, "ytdlpd.yaml", "paths:\n  downloads: /mnt/dl/\n")
	path := writeFile(t, "music.conf", "-o clip.mp4")

	out, err := run(t, "", "-c", cfgPath, "normalize", path)
	require.NoError(t, err)
	require.Equal(t, "-o \"/mnt/dl/clip.mp4\"\n", out)
}

func TestNormalize_StrictPrefix(t *testing.T) {
	path := writeFile(t, "music.conf", "-o x/data/downloads/y")

	out, err := run(t, "", "-c", missingConfig(t), "normalize", path)
	require.NoError(t, err)
	require.Equal(t, "-o \"x/data/downloads/y\"\n", out)

	out, err = run(t, "", "-c", missingConfig(t), "normalize", "--strict-prefix", path)
	require.NoError(t, err)
	require.Equal(t, "-o \"/data/downloads/x/data/downloads/y\"\n", out)
}

func TestNormalize_Write(t *testing.T) {
	path := writeFile(t, "music.conf", "-x -o clip.mp4")

	out, err := run(t, "", "-c", missingConfig(t), "normalize", "--write", path)
	require.NoError(t, err)
	require.Contains(t, out, "normalized ")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "-x\n-o \"/data/downloads/clip.mp4\"", string(b))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	out, err = run(t, "", "-c", missingConfig(t), "normalize", "-w", path)
	require.NoError(t, err)
	require.Contains(t, out, "already normalized")
}

func TestNormalize_Check(t *testing.T) {
	dirty := writeFile(t, "dirty.conf", "-x -o clip.mp4")
	_, err := run(t, "", "-c", missingConfig(t), "normalize", "--check", dirty)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
	require.Equal(t, 2, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))

	clean := writeFile(t, "clean.conf", "-x\n")
	out, err := run(t, "", "-c", missingConfig(t), "normalize", "--check", clean)
	require.NoError(t, err)
	require.Contains(t, out, "is normalized")
}

func TestNormalize_Stdin(t *testing.T) {
	out, err := run(t, "-P media", "-c", missingConfig(t), "normalize", "-")
	require.NoError(t, err)
	require.Equal(t, "-P \"/data/archive/media\"\n", out)

	_, err = run(t, "-x", "-c", missingConfig(t), "normalize", "--write", "-")
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestNormalize_WriteAndCheckExclusive(t *testing.T) {
	path := writeFile(t, "music.conf", "-x")
	_, err := run(t, "", "-c", missingConfig(t), "normalize", "--write", "--check", path)
	require.Error(t, err)
}

func TestNormalize_MissingFile(t *testing.T) {
	_, err := run(t, "", "-c", missingConfig(t), "normalize", filepath.Join(t.TempDir(), "nope.conf"))
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestInit(t *testing.T) {
	cfgPath := missingConfig(t)

	out, err := run(t, "", "-c", cfgPath, "init")
	require.NoError(t, err)
	require.Contains(t, out, cfgPath)
	require.FileExists(t, cfgPath)

	_, err = run(t, "", "-c", cfgPath, "init")
	require.True(t, errors.HasCategory(err, errors.CategoryAlreadyExists))

	_, err = run(t, "", "-c", cfgPath, "init", "--force")
	require.NoError(t, err)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	cfgPath := writeFile(t, "ytdlpd.yaml", "http:\n  port: 70000\n")
	_, err := run(t, "", "-c", cfgPath, "normalize", "-")
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
