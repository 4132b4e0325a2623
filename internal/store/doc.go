// Package store provides filesystem CRUD for yt-dlp config files and
// cookie files. Config content is always passed through the config
// normalizer before it is written.
package store
