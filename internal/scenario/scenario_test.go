package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/demoreel/internal/clock"
	"github.com/ivlev/demoreel/internal/driver"
	"github.com/ivlev/demoreel/internal/runner"
	"github.com/ivlev/demoreel/internal/timeline"
)

const sampleYAML = `
name: signup-flow
steps:
  - kind: scene
    title: Intro
    slide:
      duration: 1000
      narrate: "Welcome to the product tour."
  - kind: navigate
    url: https://example.com/signup
  - kind: click
    selector: "#email"
    narration: "First, click the email field."
  - kind: fill
    selector: "#email"
    value: "demo@example.com"
  - kind: narrate
    text: "Now let's submit the form."
  - kind: click
    selector: "#submit"
`

func writeSample(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	return path
}

func TestLoad_ParsesSteps(t *testing.T) {
	s, err := Load(writeSample(t))
	require.NoError(t, err)
	assert.Equal(t, "signup-flow", s.Name)
	require.Len(t, s.Steps, 6)
	assert.Equal(t, "scene", s.Steps[0].Kind)
	assert.Equal(t, int64(1000), int64(s.Steps[0].Slide.DurationMs))
}

func TestCollectNarration_GathersInOrderFromAllThreeSources(t *testing.T) {
	s, err := Load(writeSample(t))
	require.NoError(t, err)

	texts := s.CollectNarration()
	assert.Equal(t, []string{
		"Welcome to the product tour.",
		"First, click the email field.",
		"Now let's submit the form.",
	}, texts)
}

func TestRun_ExecutesAgainstStubDriverWithoutError(t *testing.T) {
	s, err := Load(writeSample(t))
	require.NoError(t, err)

	c := clock.New(30, t.TempDir(), nil)
	r := runner.New(c, driver.StubSession{}, nil, 1920, 1080, []runner.NarrationSegment{
		{Text: "Welcome to the product tour.", DurationMs: 1500},
		{Text: "First, click the email field.", DurationMs: 1200},
		{Text: "Now let's submit the form.", DurationMs: 1000},
	})

	err = Run(context.Background(), r, s, nil)
	require.NoError(t, err)

	var narrationCount int
	for _, e := range r.Events() {
		if e.Kind == timeline.EventNarration {
			narrationCount++
		}
	}
	assert.Equal(t, 3, narrationCount)
}

func TestRun_UnknownStepKindErrors(t *testing.T) {
	s := &Scenario{Steps: []Step{{Kind: "teleport"}}}
	c := clock.New(30, t.TempDir(), nil)
	r := runner.New(c, driver.StubSession{}, nil, 1920, 1080, nil)

	err := Run(context.Background(), r, s, nil)
	assert.Error(t, err)
}
