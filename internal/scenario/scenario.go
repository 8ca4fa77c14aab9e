// Package scenario loads a scenario file — an ordered list of
// instrumentation-API calls — and replays it against a runner.Runner.
// Narration texts are collected from the step list by CollectNarration
// without running any step; the steps are then replayed by Run against a
// real browser-backed Runner to record. Adapted from the teacher's YAML scenario format
// (internal/director/scenario.go), generalized from slide/keyframe pairs
// to the full instrumentation-API surface.
package scenario

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/demoreel/internal/runner"
	"github.com/ivlev/demoreel/internal/timeline"
)

// Step is one instrumentation-API call, in the order the scenario makes
// it. Only the fields relevant to Kind are populated.
type Step struct {
	Kind string `yaml:"kind"` // scene, navigate, click, fill, hover, press, dblclick, narrate, wait, transition

	Title       string          `yaml:"title,omitempty"`
	Description string          `yaml:"description,omitempty"`
	Slide       *timeline.Slide `yaml:"slide,omitempty"`

	URL       string `yaml:"url,omitempty"`
	Selector  string `yaml:"selector,omitempty"`
	Value     string `yaml:"value,omitempty"`
	Key       string `yaml:"key,omitempty"`
	Narration string `yaml:"narration,omitempty"`

	Text string `yaml:"text,omitempty"` // narrate

	WaitMs int64 `yaml:"waitMs,omitempty"`

	TransitionKind       timeline.TransitionKind `yaml:"transitionKind,omitempty"`
	TransitionDurationMs int64                   `yaml:"transitionDurationMs,omitempty"`
}

// Scenario is a named, ordered list of steps plus the metadata the
// finalized timeline records alongside its event stream.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: reading %s: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scenario: parsing %s: %w", path, err)
	}
	return &s, nil
}

// CollectNarration returns every narration text the scenario would emit,
// in order, without running any step against a real driver: opts.Narration
// on action steps, narrate-step text, and scene-step slide.Narrate.
func (s *Scenario) CollectNarration() []string {
	var texts []string
	for _, step := range s.Steps {
		switch step.Kind {
		case "narrate":
			texts = append(texts, step.Text)
		case "scene":
			if step.Slide != nil && step.Slide.Narrate != "" {
				texts = append(texts, step.Slide.Narrate)
			}
		default:
			if step.Narration != "" {
				texts = append(texts, step.Narration)
			}
		}
	}
	return texts
}

// Run replays every step against r, in order, then finalizes r. The
// compose pipeline calls it for the recording pass (r backed by a browser
// driver); it works the same against any driver.Session, including
// driver.StubSession. log receives warnings about replaced or discarded
// transitions; it may be nil.
func Run(ctx context.Context, r *runner.Runner, s *Scenario, log runner.Warner) error {
	for i, step := range s.Steps {
		if err := runStep(ctx, r, step, log); err != nil {
			return fmt.Errorf("scenario: step %d (%s): %w", i, step.Kind, err)
		}
	}
	r.Finalize(log)
	return nil
}

func runStep(ctx context.Context, r *runner.Runner, step Step, log runner.Warner) error {
	opts := runner.ActionOptions{Narration: step.Narration, Value: step.Value}

	switch step.Kind {
	case "scene":
		return r.Scene(ctx, step.Title, runner.SceneOptions{Description: step.Description, Slide: step.Slide})
	case "navigate":
		return r.Navigate(ctx, step.URL, opts)
	case "click":
		return r.Click(ctx, step.Selector, opts)
	case "fill":
		return r.Fill(ctx, step.Selector, opts)
	case "hover":
		return r.Hover(ctx, step.Selector, opts)
	case "press":
		return r.Press(ctx, step.Selector, step.Key, opts)
	case "dblclick":
		return r.DblClick(ctx, step.Selector, opts)
	case "narrate":
		return r.Narrate(ctx, step.Text)
	case "wait":
		return r.Wait(ctx, step.WaitMs)
	case "transition":
		return r.Transition(ctx, runner.TransitionOptions{Kind: step.TransitionKind, DurationMs: step.TransitionDurationMs}, log)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}
