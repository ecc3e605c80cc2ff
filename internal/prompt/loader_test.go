package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sonarlens/sonarlens/internal/pplx/schema"
)

const samplePreset = `---
slug: news
name: News Digest
model: sonar
temperature: 0.3
max_tokens: 512
search_recency_filter: day
---

Summarize today's news on the given topic. Lead with the most important
development.
`

func TestLoad(t *testing.T) {
	preset, err := Load("news.md", []byte(samplePreset))
	require.NoError(t, err)

	require.Equal(t, "news", preset.Config.Slug)
	require.Equal(t, "sonar", preset.Config.Model)
	require.NotNil(t, preset.Config.Temperature)
	require.Equal(t, 0.3, *preset.Config.Temperature)
	require.NotNil(t, preset.Config.MaxTokens)
	require.Equal(t, 512, *preset.Config.MaxTokens)
	require.Equal(t, "day", preset.Config.SearchRecencyFilter)
	require.Contains(t, preset.Config.SystemTemplate, "Summarize today's news")
	require.Equal(t, "news.md", preset.Source)
}

func TestLoadMissingSlug(t *testing.T) {
	_, err := Load("bad.md", []byte("---\nname: no slug\n---\n\nbody\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing slug")
}

func TestLoadMissingTemplate(t *testing.T) {
	_, err := Load("bad.md", []byte("---\nslug: empty\n---\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing system template")
}

func TestLoadBadFrontmatter(t *testing.T) {
	_, err := Load("bad.md", []byte("---\n: not yaml [\n---\n\nbody\n"))
	require.Error(t, err)
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "news.md"), []byte(samplePreset), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	presets, err := LoadFromDir(dir)
	require.NoError(t, err)
	require.Len(t, presets, 1)
	require.Equal(t, "news", presets[0].Config.Slug)
}

func TestApply(t *testing.T) {
	preset, err := Load("news.md", []byte(samplePreset))
	require.NoError(t, err)

	req := preset.Apply(schema.ChatRequest{}.WithMessage(schema.User("AI developments")))

	require.Equal(t, "sonar", req.Model)
	require.NotNil(t, req.Temperature)
	require.Equal(t, 0.3, *req.Temperature)
	require.Equal(t, "day", req.SearchRecencyFilter)

	require.Len(t, req.Messages, 2)
	require.Equal(t, schema.RoleSystem, req.Messages[0].Role)
	require.Equal(t, schema.RoleUser, req.Messages[1].Role)
	require.NoError(t, req.Validate())
}

func TestApplyDoesNotOverrideExplicitValues(t *testing.T) {
	preset, err := Load("news.md", []byte(samplePreset))
	require.NoError(t, err)

	req := schema.NewChatRequest("sonar-pro").
		WithMessage(schema.System("custom system")).
		WithMessage(schema.User("hi")).
		WithTemperature(0.9)

	applied := preset.Apply(req)
	require.Equal(t, "sonar-pro", applied.Model)
	require.Equal(t, 0.9, *applied.Temperature)

	// Existing system message is kept and no second one is injected.
	require.Len(t, applied.Messages, 2)
	require.Equal(t, "custom system", applied.Messages[0].Content)
}

func TestRegistry(t *testing.T) {
	first, err := Load("a.md", []byte("---\nslug: alpha\n---\n\nfirst template\n"))
	require.NoError(t, err)
	second, err := Load("b.md", []byte("---\nslug: beta\n---\n\nsecond template\n"))
	require.NoError(t, err)

	reg, err := NewRegistry([]*Preset{second, first})
	require.NoError(t, err)

	got, err := reg.Get("alpha")
	require.NoError(t, err)
	require.Equal(t, "first template", got.Config.SystemTemplate)

	_, err = reg.Get("missing")
	require.Error(t, err)

	listed := reg.List()
	require.Len(t, listed, 2)
	require.Equal(t, "alpha", listed[0].Config.Slug)
	require.Equal(t, "beta", listed[1].Config.Slug)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	preset, err := Load("a.md", []byte("---\nslug: dup\n---\n\ntemplate\n"))
	require.NoError(t, err)

	_, err = NewRegistry([]*Preset{preset, preset})
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate preset slug")
}

func TestDefaultRegistry(t *testing.T) {
	reg, err := DefaultRegistry("")
	require.NoError(t, err)

	research, err := reg.Get("research")
	require.NoError(t, err)
	require.Equal(t, "sonar-pro", research.Config.Model)

	concise, err := reg.Get("concise")
	require.NoError(t, err)
	require.NotNil(t, concise.Config.MaxTokens)
}
