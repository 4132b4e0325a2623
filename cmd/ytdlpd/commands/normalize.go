package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/ytdlpd/internal/config"
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
)

// NormalizeCmd implements the 'normalize' command.
type NormalizeCmd struct {
	File  string `arg:"" help:"yt-dlp config file, - for stdin"`
	Write bool   `short:"w" xor:"mode" help:"Rewrite the file in place"`
	Check bool   `xor:"mode" help:"Exit non-zero when the file is not normalized"`

	Downloads      string `help:"Downloads folder prefix (overrides paths.downloads)"`
	Archive        string `help:"Archive folder prefix (overrides paths.archive)"`
	Cookies        string `help:"Cookies folder prefix (overrides paths.cookies)"`
	StrictPrefix   bool   `help:"Only skip values that start with the folder prefix instead of containing it"`
	ConfineCookies bool   `help:"Root relative --cookies values under the cookies folder"`
}

func (n *NormalizeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	n.applyOverrides(cfg)

	stdin := n.File == "-"
	if stdin && n.Write {
		return errors.ValidationError("--write cannot be used with stdin").Build()
	}

	raw, err := n.read(g.Stdin)
	if err != nil {
		return err
	}

	normalized := cfg.NewNormalizer().Normalize(raw)
	// A trailing newline alone does not count as a change.
	changed := normalized != strings.TrimRight(raw, "\r\n")

	switch {
	case n.Check:
		if changed {
			return errors.ValidationError("config file is not normalized").WithContext("path", n.File).Build()
		}
		_, _ = fmt.Fprintf(g.Stdout, "%s is normalized\n", n.File)
		return nil
	case n.Write:
		if !changed {
			_, _ = fmt.Fprintf(g.Stdout, "%s already normalized\n", n.File)
			return nil
		}
		if err := writeInPlace(n.File, normalized); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.Stdout, "normalized %s\n", n.File)
		return nil
	default:
		_, err := io.WriteString(g.Stdout, normalized+"\n")
		return err
	}
}

func (n *NormalizeCmd) applyOverrides(cfg *config.Config) {
	if n.Downloads != "" {
		cfg.Paths.Downloads = n.Downloads
	}
	if n.Archive != "" {
		cfg.Paths.Archive = n.Archive
	}
	if n.Cookies != "" {
		cfg.Paths.Cookies = n.Cookies
	}
	if n.StrictPrefix {
		cfg.Normalizer.StrictPrefix = true
	}
	if n.ConfineCookies {
		cfg.Normalizer.ConfineCookies = true
	}
}

func (n *NormalizeCmd) read(stdin io.Reader) (string, error) {
	if n.File == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to read stdin").Build()
		}
		return string(b), nil
	}
	b, err := os.ReadFile(n.File)
	if os.IsNotExist(err) {
		return "", errors.NotFoundError("config file not found").WithContext("path", n.File).Build()
	}
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", n.File).Build()
	}
	return string(b), nil
}

// writeInPlace replaces path keeping its permission bits.
func writeInPlace(path, content string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to stat config file").
			WithContext("path", path).Build()
	}
	if err := os.WriteFile(path, []byte(content), info.Mode().Perm()); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", path).Build()
	}
	return nil
}
