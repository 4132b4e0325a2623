// Package confnorm rewrites yt-dlp configuration files into a canonical,
// one-argument-per-line form in which every path-bearing option is rooted
// under a server-controlled folder.
//
// The package has three layers:
//   - Tokenize splits one physical line into argument tokens, keeping an
//     option glued to its value.
//   - Rewrite confines the value of a path-bearing option to its folder.
//   - Normalize applies both across a whole file, passing comments and
//     blank lines through untouched.
//
// A Normalizer is immutable after construction and safe for concurrent use.
// None of its methods return errors: anything that cannot be interpreted as
// a path-bearing option is passed through unchanged.
//
// Example:
//
//	n := confnorm.New(confnorm.Folders{
//		Downloads: "/data/downloads/",
//		Archive:   "/data/archive/",
//	})
//	out := n.Normalize(`--format best -o "video.%(ext)s"`)
//	// --format best
//	// -o "/data/downloads/video.%(ext)s"
package confnorm
