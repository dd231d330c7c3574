package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"int64", int64(-100), "-100"},
		{"bool", true, "true"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"array", []any{1, "a", false}, `[1,"a",false]`},
		{"no html escaping", "<a&b>", `"<a&b>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{
		"zebra": 1,
		"alpha": map[string]any{"b": 1, "a": 2},
		"beta":  3,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"a":2,"b":1},"beta":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalUTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as a surrogate pair (0xD83D...) which sorts before
	// U+FF5E in UTF-16 but after it in UTF-8.
	obj := map[string]any{"～": 1, "😀": 2}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"😀":2,"～":1}`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	result, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestMarshalCanonicalRejects(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.ErrorContains(t, err, "null is forbidden")

	_, err = MarshalCanonical(map[string]any{"p": 0.5})
	assert.ErrorContains(t, err, "floats are forbidden")
	assert.ErrorContains(t, err, `["p"]`)

	_, err = MarshalCanonical([]any{1, struct{}{}})
	assert.ErrorContains(t, err, "unsupported type")
	assert.ErrorContains(t, err, "[1]")
}

func TestFingerprintStable(t *testing.T) {
	tl, ok := Builtin().Get(PrepToSession)
	require.True(t, ok)

	fp := Fingerprint(tl)
	assert.Len(t, fp, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", fp)
	assert.Equal(t, fp, Fingerprint(tl.clone()))
}

func TestFingerprintDistinguishesChoreography(t *testing.T) {
	base := simpleTimeline("x", 100)
	fp := Fingerprint(base)

	longer := base.clone()
	longer.Total = ms(101)
	assert.NotEqual(t, fp, Fingerprint(longer))

	renamed := base.clone()
	renamed.ID = "y"
	assert.NotEqual(t, fp, Fingerprint(renamed))

	decorated := base.clone()
	decorated.Phases[0].Decor = &Decor{ParticleCount: 1}
	assert.NotEqual(t, fp, Fingerprint(decorated))

	particles := base.clone()
	particles.UsesParticles = true
	assert.NotEqual(t, fp, Fingerprint(particles))
}

func TestFingerprintIgnoresSource(t *testing.T) {
	result, errs := LoadDir(testdata + "/valid")
	require.Empty(t, errs)

	for _, tl := range result.Timelines {
		doc := Doc{ID: string(tl.ID), TotalMs: tl.Total.Milliseconds(), UsesParticles: tl.UsesParticles}
		for _, p := range tl.Phases {
			pd := PhaseDoc{
				ID:         string(p.ID),
				StartMs:    p.Start.Milliseconds(),
				DurationMs: p.Duration.Milliseconds(),
				Target:     string(p.Target),
				Action:     string(p.Action),
			}
			if p.Decor != nil {
				pd.Decor = &DecorDoc{
					ParticleCount: p.Decor.ParticleCount,
					StaggerMs:     p.Decor.Stagger.Milliseconds(),
					ColorBias:     p.Decor.ColorBias,
				}
			}
			doc.Phases = append(doc.Phases, pd)
		}
		assert.Equal(t, Fingerprint(tl), Fingerprint(doc.Compile()), "timeline %s", tl.ID)
	}
}
