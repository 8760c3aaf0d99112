package core

import (
	"testing"

	"github.com/valter-silva-au/eisenhower/pkg/models"
	"pgregory.net/rapid"
)

// Feature: eis, Property 10: Default Score Validation
// Default urgency and importance validate exactly when both lie in 1..10.
func TestProperty_DefaultScoreValidation(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	rapid.Check(t, func(rt *rapid.T) {
		cfg := DefaultGlobalConfig()
		cfg.Classifier.DefaultUrgency = rapid.IntRange(-5, 15).Draw(rt, "urgency")
		cfg.Classifier.DefaultImportance = rapid.IntRange(-5, 15).Draw(rt, "importance")

		inRange := func(n int) bool { return n >= 1 && n <= 10 }
		want := inRange(cfg.Classifier.DefaultUrgency) && inRange(cfg.Classifier.DefaultImportance)

		err := cm.ValidateConfig(cfg)
		if want && err != nil {
			rt.Fatalf("expected valid config, got %v", err)
		}
		if !want && err == nil {
			rt.Fatalf("expected an error for urgency=%d importance=%d",
				cfg.Classifier.DefaultUrgency, cfg.Classifier.DefaultImportance)
		}
	})
}

// Feature: eis, Property 11: Submission Mode Validation
// Only "single" and "full" are accepted submission modes.
func TestProperty_SubmissionModeValidation(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	rapid.Check(t, func(rt *rapid.T) {
		cfg := DefaultGlobalConfig()
		mode := rapid.StringMatching(`[a-z]{0,8}`).Draw(rt, "mode")
		cfg.Sync.SubmissionMode = models.SubmissionMode(mode)

		err := cm.ValidateConfig(cfg)
		valid := mode == "single" || mode == "full"
		if valid != (err == nil) {
			rt.Fatalf("mode %q: valid=%v, err=%v", mode, valid, err)
		}
	})
}
