package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/socialflow-ai/socialflow/assets"
	"github.com/socialflow-ai/socialflow/model"
)

// Image file size bounds enforced by validation.
const (
	MinImageBytes = 1000
	MaxImageBytes = 10_000_000
)

const imagePromptSystemPrompt = `You are an expert visual content creator specializing in
generating descriptive prompts for image generation based on written content.

Your responsibilities:
1. Analyze the provided content to understand its core message and themes
2. Create a detailed, descriptive prompt for image generation
3. Focus on visual elements that would complement and enhance the content
4. Consider the platform and tone to ensure appropriate visual style
5. Generate prompts that are clear, specific, and actionable for image AI

Guidelines for image prompts:
- Be specific about visual elements, colors, composition, and style
- Consider the content's mood and tone
- Include relevant contextual details that enhance the message
- Avoid text or words in the image description
- Focus on scenes, objects, people, or abstract concepts that represent the content
- Keep prompts concise but descriptive (2-3 sentences max)

Platform considerations:
- Twitter: Clean, engaging, eye-catching visuals
- LinkedIn: Professional, business-oriented imagery
- Blog: Comprehensive, illustrative visuals
- General: Balanced, versatile imagery

Return only the image generation prompt, nothing else.`

// imageQuality is the rendering quality tier requested from the provider.
const imageQuality = "medium"

// Illustrator executes the image stage in two phases: derive a short visual
// description from the generated content, then render and persist it.
type Illustrator struct {
	chat      model.ChatModel
	image     model.ImageModel
	dir       *assets.Dir
	modelName string
	now       func() time.Time
}

// NewIllustrator creates an image stage executor writing into dir.
func NewIllustrator(chat model.ChatModel, image model.ImageModel, dir *assets.Dir, modelName string) *Illustrator {
	return &Illustrator{chat: chat, image: image, dir: dir, modelName: modelName, now: time.Now}
}

// Execute derives an image prompt from the content, renders it, persists the
// file under a deterministic name, and returns a validated ImageResponse
// with a web-relative path.
func (il *Illustrator) Execute(ctx context.Context, req ImageRequest) (ImageResponse, error) {
	if strings.TrimSpace(req.ContentData.Content) == "" {
		return ImageResponse{}, errors.New("cannot generate an image without content results")
	}

	start := il.now()

	if err := il.dir.Ensure(); err != nil {
		return ImageResponse{}, err
	}

	prompt, err := il.createImagePrompt(ctx, req.ContentData)
	if err != nil {
		return ImageResponse{}, err
	}

	data, err := il.image.GenerateImage(ctx, prompt, model.ImageOptions{
		Size:    req.ImageSize,
		Quality: imageQuality,
		Format:  "png",
	})
	if err != nil {
		return ImageResponse{}, fmt.Errorf("image generation: %w", err)
	}

	name := assets.Filename(req.Topic, string(req.ContentData.Platform), il.now())
	if _, err := il.dir.Write(name, data); err != nil {
		return ImageResponse{}, err
	}

	size, err := il.dir.Size(name)
	if err != nil {
		return ImageResponse{}, fmt.Errorf("cannot stat written image: %w", err)
	}

	resp := ImageResponse{
		ImagePath:     il.dir.WebPath(name),
		ImagePrompt:   prompt,
		ImageSize:     req.ImageSize,
		FileSizeBytes: size,
		Metadata: map[string]interface{}{
			"execution_time_seconds":  il.now().Sub(start).Seconds(),
			"stage_version":           stageVersion,
			"model_used":              il.modelName,
			"source_content_platform": string(req.ContentData.Platform),
			"source_content_topic":    req.Topic,
			"image_style":             req.ImageStyle,
			"generation_timestamp":    il.now().Format(time.RFC3339),
		},
	}

	if err := il.Validate(resp); err != nil {
		return ImageResponse{}, err
	}
	return resp, nil
}

// createImagePrompt derives a 2-3 sentence visual description from the
// generated content via a text-generation call.
func (il *Illustrator) createImagePrompt(ctx context.Context, content ContentResponse) (string, error) {
	userPrompt := fmt.Sprintf(`Create an image generation prompt based on this content:

Platform: %s
Content: %s

The image should visually represent the key themes and message of this content.
Focus on creating a prompt that will generate a relevant, engaging image that complements the written content.
`, content.Platform, content.Content)

	out, err := il.chat.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: imagePromptSystemPrompt},
		{Role: model.RoleUser, Content: userPrompt},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create image prompt: %w", err)
	}

	prompt := strings.TrimSpace(out.Text)
	if prompt == "" {
		return "", errors.New("generated image prompt is empty")
	}
	return prompt, nil
}

// Validate checks an image response against the stage's requirements:
// the referenced file exists and is readable, its size is within bounds,
// and the prompt and size fields are non-empty. Pure with respect to the
// response; it reads but never mutates the filesystem.
func (il *Illustrator) Validate(resp ImageResponse) error {
	name, ok := il.dir.FileFromWebPath(resp.ImagePath)
	if !ok {
		return fmt.Errorf("image path %q is not under the served directory", resp.ImagePath)
	}

	if !il.dir.Readable(name) {
		return fmt.Errorf("image file %s does not exist or is unreadable", name)
	}
	if resp.FileSizeBytes < MinImageBytes || resp.FileSizeBytes > MaxImageBytes {
		return fmt.Errorf("image file size %d bytes outside [%d, %d]", resp.FileSizeBytes, MinImageBytes, MaxImageBytes)
	}
	if strings.TrimSpace(resp.ImagePrompt) == "" {
		return errors.New("image prompt is empty")
	}
	if strings.TrimSpace(resp.ImageSize) == "" {
		return errors.New("image size is empty")
	}
	return nil
}
