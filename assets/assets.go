// Package assets manages generated image files on local disk.
//
// Generated images live under a data directory (default "data/images") and
// are served to web clients under the "static/" prefix; WebPath maps between
// the two. Filenames are deterministic: a timestamp plus sanitized topic and
// platform slugs, so a run's artifact can be located from its inputs.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// webPrefix is the URL prefix under which the data directory is served.
const webPrefix = "static"

// topicSlugMax bounds the topic portion of generated filenames.
const topicSlugMax = 30

var (
	nonSlugChars  = regexp.MustCompile(`[^\w\s-]`)
	nonWordChars  = regexp.MustCompile(`[^\w]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Dir is a file store rooted at a single images directory.
type Dir struct {
	root string
}

// NewDir creates a Dir rooted at the given path. The directory is not
// created until Ensure is called.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the directory path this store writes into.
func (d *Dir) Root() string {
	return d.root
}

// Ensure creates the images directory if it does not exist.
func (d *Dir) Ensure() error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("cannot create images directory %s: %w", d.root, err)
	}
	return nil
}

// Write persists raw image bytes under the given filename and returns the
// full path of the written file.
func (d *Dir) Write(name string, data []byte) (string, error) {
	path := filepath.Join(d.root, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("cannot write image file %s: %w", path, err)
	}
	return path, nil
}

// Size returns the size in bytes of the named file.
func (d *Dir) Size(name string) (int64, error) {
	info, err := os.Stat(filepath.Join(d.root, name))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Readable reports whether the named file exists and its first byte can be
// read.
func (d *Dir) Readable(name string) bool {
	f, err := os.Open(filepath.Join(d.root, name))
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 1)
	_, err = f.Read(buf)
	return err == nil
}

// WebPath converts a filename in this directory to its web-servable path.
//
//	WebPath("20240101_120000_solar_twitter.png")
//	  => "static/images/20240101_120000_solar_twitter.png"
func (d *Dir) WebPath(name string) string {
	base := filepath.Base(d.root)
	return strings.Join([]string{webPrefix, base, name}, "/")
}

// FileFromWebPath maps a web path produced by WebPath back to the bare
// filename, or returns ok=false if the path does not point into this
// directory.
func (d *Dir) FileFromWebPath(webPath string) (string, bool) {
	prefix := webPrefix + "/" + filepath.Base(d.root) + "/"
	if !strings.HasPrefix(webPath, prefix) {
		return "", false
	}
	return strings.TrimPrefix(webPath, prefix), true
}

// Filename builds the deterministic image filename for a topic and platform:
//
//	{YYYYMMDD_HHMMSS}_{slug(topic)}_{slug(platform)}.png
//
// The topic slug is lowercased, stripped of characters outside
// [A-Za-z0-9_\s-], whitespace-collapsed to underscores, and truncated to 30
// characters. The platform slug keeps word characters only.
func Filename(topic, platform string, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%s.png",
		ts.Format("20060102_150405"),
		TopicSlug(topic),
		platformSlug(platform),
	)
}

// TopicSlug sanitizes a topic for use in filenames.
func TopicSlug(topic string) string {
	slug := nonSlugChars.ReplaceAllString(topic, "")
	slug = whitespaceRun.ReplaceAllString(strings.TrimSpace(slug), "_")
	slug = strings.ToLower(slug)
	if len(slug) > topicSlugMax {
		slug = slug[:topicSlugMax]
	}
	return slug
}

func platformSlug(platform string) string {
	return strings.ToLower(nonWordChars.ReplaceAllString(platform, ""))
}
