package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mouadelabbassi/dashboard/internal/nlp"
)

func newTestParser() *nlp.Parser {
	return nlp.NewParser(nlp.MustLibrary())
}

func TestGoldenCases(t *testing.T) {
	cases, err := LoadFile("../nlp/testdata/golden.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, cases)

	results, err := Run(newTestParser(), cases)
	require.NoError(t, err)

	for _, r := range results {
		assert.True(t, r.Passed(), "case %q (%q): %v", r.Case.Name, r.Case.Query, r.Failures)
	}
}

func TestRun_ReportsFailures(t *testing.T) {
	cases, err := Load(strings.NewReader(`
cases:
  - name: wrong expectations
    query: "sous 500"
    expect:
      intent: top_rated
      max_price: 100
      min_reviews: 3
      absent: [max_price]
`))
	require.NoError(t, err)

	results, err := Run(newTestParser(), cases)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed())
	assert.Len(t, results[0].Failures, 4)

	passed, failed := Summary(results)
	assert.Equal(t, 0, passed)
	assert.Equal(t, 1, failed)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	_, err := Load(strings.NewReader(`
cases:
  - name: typo
    query: "x"
    expect:
      max_prise: 10
`))
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownAbsentField(t *testing.T) {
	_, err := Load(strings.NewReader(`
cases:
  - name: bad absent
    query: "x"
    expect:
      absent: [colour]
`))
	assert.Error(t, err)
}

func TestLoad_RequiresName(t *testing.T) {
	_, err := Load(strings.NewReader(`
cases:
  - query: "x"
`))
	assert.Error(t, err)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("does-not-exist.yaml")
	assert.Error(t, err)
}
