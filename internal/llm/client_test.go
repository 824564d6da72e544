package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripThinkTags(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no tags", "Hallo, hier die Antwort.", "Hallo, hier die Antwort."},
		{"single span", "<think>reasoning here</think>Hallo!", "Hallo!"},
		{"multiline span", "<think>line one\nline two</think>\n\nAntwort.", "Antwort."},
		{"multiple spans", "<think>a</think>Erster Teil<think>b</think> zweiter Teil", "Erster Teil zweiter Teil"},
		{"unclosed tag left alone", "<think>never closed Antwort", "<think>never closed Antwort"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripThinkTags(tc.in))
		})
	}
}

func TestToFloat32(t *testing.T) {
	out := toFloat32([]float64{0.5, -1.25, 0})
	assert.Equal(t, []float32{0.5, -1.25, 0}, out)
}
