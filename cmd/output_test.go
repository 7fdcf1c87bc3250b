package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"#", "Title"},
		[][]string{{"1", "Dune"}, {"2"}},
		[]columnAlignment{alignRight, alignLeft},
	)

	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "TITLE")
	assert.Equal(t, 6, len(strings.Split(strings.TrimSpace(out), "\n")))

	assert.Empty(t, renderTable(nil, nil, nil))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Dune", truncate("Dune", 10))
	assert.Equal(t, "Dune: P...", truncate("Dune: Part Two", 10))
	assert.Equal(t, "Amélie ...", truncate("Amélie Poulain", 10))
}

func TestParseID(t *testing.T) {
	id, err := parseID("438631")
	assert.NoError(t, err)
	assert.Equal(t, int64(438631), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestYearString(t *testing.T) {
	assert.Equal(t, "-", yearString(0))
	assert.Equal(t, "2021", yearString(2021))
}
