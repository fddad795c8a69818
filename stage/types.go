// Package stage implements the three generation stages of the content
// pipeline (research, content, and image) together with their shared
// request/response contracts and output validators.
package stage

import "fmt"

// Platform identifies the social target the content is optimized for.
type Platform string

// Supported platforms.
const (
	PlatformTwitter  Platform = "twitter"
	PlatformLinkedIn Platform = "linkedin"
	PlatformBlog     Platform = "blog"
	PlatformGeneral  Platform = "general"
)

// Platforms lists every supported platform.
func Platforms() []Platform {
	return []Platform{PlatformTwitter, PlatformLinkedIn, PlatformBlog, PlatformGeneral}
}

// ParsePlatform validates and normalizes a platform string.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range Platforms() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported platform %q (must be one of twitter, linkedin, blog, general)", s)
}

// Tone identifies the desired voice of the generated content.
type Tone string

// Supported tones.
const (
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneInformative  Tone = "informative"
	ToneEngaging     Tone = "engaging"
)

// Tones lists every supported tone.
func Tones() []Tone {
	return []Tone{ToneProfessional, ToneCasual, ToneInformative, ToneEngaging}
}

// ParseTone validates and normalizes a tone string.
func ParseTone(s string) (Tone, error) {
	for _, t := range Tones() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unsupported tone %q (must be one of professional, casual, informative, engaging)", s)
}

// ResearchRequest is the input to the research stage.
type ResearchRequest struct {
	// Topic is the subject to research.
	Topic string `json:"topic"`

	// Context optionally carries constraints or hints, e.g. the target
	// platform and tone.
	Context string `json:"context,omitempty"`
}

// ResearchResponse is the validated output of the research stage.
type ResearchResponse struct {
	// BulletPoints holds 5-7 factual statements about the topic.
	BulletPoints []string `json:"bullet_points"`

	// Topic is the original topic that was researched. The stage forces
	// this to the request topic regardless of what the model echoed.
	Topic string `json:"topic"`

	// Metadata carries provenance: execution duration, stage version,
	// model identifier.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ContentRequest is the input to the content stage.
type ContentRequest struct {
	// ResearchData is the validated output of the research stage.
	ResearchData ResearchResponse `json:"research_data"`

	// Platform selects length and format constraints.
	Platform Platform `json:"platform"`

	// Tone selects the writing voice.
	Tone Tone `json:"tone"`
}

// ContentResponse is the validated output of the content stage.
type ContentResponse struct {
	// Content is the generated platform-optimized text.
	Content string `json:"content"`

	// Platform the content was optimized for; forced to the request
	// platform, never trusted from the model echo.
	Platform Platform `json:"platform"`

	// WordCount is recomputed by the stage from Content, not taken from
	// the model's self-report.
	WordCount int `json:"word_count"`

	// Metadata carries provenance and generation notes.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ImageRequest is the input to the image stage.
type ImageRequest struct {
	// ContentData is the validated output of the content stage; the image
	// prompt is derived from it.
	ContentData ContentResponse `json:"content_data"`

	// Topic is the original research topic, used for filename generation.
	Topic string `json:"topic"`

	// ImageStyle selects the rendering style (photorealistic, artistic, ...).
	ImageStyle string `json:"image_style"`

	// ImageSize is one of "1024x1024", "1792x1024", "1024x1792".
	ImageSize string `json:"image_size"`
}

// ImageResponse is the validated output of the image stage.
type ImageResponse struct {
	// ImagePath is the web-relative path of the persisted image,
	// prefixed "static/".
	ImagePath string `json:"image_path"`

	// ImagePrompt is the derived visual-description prompt.
	ImagePrompt string `json:"image_prompt"`

	// ImageSize is the rendered dimensions.
	ImageSize string `json:"image_size"`

	// FileSizeBytes is the size of the persisted file.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// Metadata carries provenance about the generation.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// SupportedImageSizes lists the image dimensions the image stage accepts.
func SupportedImageSizes() []string {
	return []string{"1024x1024", "1792x1024", "1024x1792"}
}

// SupportedImageStyles lists the rendering styles the image stage accepts.
func SupportedImageStyles() []string {
	return []string{"photorealistic", "artistic", "abstract", "minimalist", "professional"}
}
