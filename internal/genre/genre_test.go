package genre

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hip Hop", "hip-hop"},
		{"Música Électronique", "musica-electronique"},
		{"Drum & Bass", "drum-bass"},
		{"  --Synthwave--  ", "synthwave"},
		{"🎸", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.input))
		})
	}
}

func TestNormalizeToSlugs(t *testing.T) {
	assert.Equal(t, []string{"drum-and-bass"}, NormalizeToSlugs("Drum & Bass"))
	assert.Equal(t, []string{"rnb"}, NormalizeToSlugs("R&B"))
	assert.Equal(t, []string{"lo-fi", "hip-hop"}, NormalizeToSlugs("Lo-Fi Hip Hop"))
	assert.Equal(t, []string{"ambient"}, NormalizeToSlugs("Ambient"))
	assert.Nil(t, NormalizeToSlugs("  "))
}

func TestNormalizeAll_DedupesInOrder(t *testing.T) {
	got := NormalizeAll([]string{"Rap", "", "Jazz", "hip hop", "Chillhop"})

	assert.Equal(t, []string{"hip-hop", "jazz", "lo-fi"}, got)
}
