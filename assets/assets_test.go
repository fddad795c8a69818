package assets

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

func TestTopicSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Climate Change 2024!", "climate_change_2024"},
		{"AI & Machine Learning", "ai_machine_learning"},
		{"  leading and trailing  ", "leading_and_trailing"},
		{"Tabs\tand\nnewlines", "tabs_and_newlines"},
		{"already_slugged-text", "already_slugged-text"},
		{"This is a very long topic title that keeps going on", "this_is_a_very_long_topic_titl"},
	}
	for _, tc := range cases {
		if got := TopicSlug(tc.in); got != tc.want {
			t.Errorf("TopicSlug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFilename(t *testing.T) {
	ts := time.Date(2024, 1, 15, 9, 30, 45, 0, time.UTC)
	got := Filename("Solar Power!", "Twitter", ts)
	want := "20240115_093045_solar_power_twitter.png"
	if got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}
}

func TestDirWriteAndRead(t *testing.T) {
	dir := NewDir(filepath.Join(t.TempDir(), "images"))
	if err := dir.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	data := bytes.Repeat([]byte{0x5A}, 2000)
	path, err := dir.Write("pic.png", data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(path) != "pic.png" {
		t.Errorf("returned path = %q", path)
	}

	size, err := dir.Size("pic.png")
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 2000 {
		t.Errorf("size = %d", size)
	}

	if !dir.Readable("pic.png") {
		t.Error("written file not readable")
	}
	if dir.Readable("missing.png") {
		t.Error("missing file reported readable")
	}
}

func TestWebPathRoundTrip(t *testing.T) {
	dir := NewDir("data/images")

	web := dir.WebPath("a.png")
	if web != "static/images/a.png" {
		t.Errorf("WebPath = %q", web)
	}

	name, ok := dir.FileFromWebPath(web)
	if !ok || name != "a.png" {
		t.Errorf("FileFromWebPath(%q) = %q, %v", web, name, ok)
	}

	if _, ok := dir.FileFromWebPath("static/other/a.png"); ok {
		t.Error("foreign path accepted")
	}
	if _, ok := dir.FileFromWebPath("a.png"); ok {
		t.Error("bare filename accepted")
	}
}
