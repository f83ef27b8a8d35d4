package report

import (
	"bytes"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/stvsmth/sieve/internal"
	"github.com/stvsmth/sieve/pkg/sieve"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestParseLocale(t *testing.T) {
	tag, err := ParseLocale("de")
	require.NoError(t, err)
	assert.Equal(t, language.German, tag)

	tag, err = ParseLocale("")
	require.NoError(t, err)
	assert.Equal(t, language.English, tag)

	tag, err = ParseLocale("not a locale!")
	assert.Error(t, err)
	assert.Equal(t, language.English, tag)
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatCount(language.English, 1234567))
	assert.Equal(t, "1.234.567", FormatCount(language.German, 1234567))
	assert.Equal(t, "0", FormatCount(language.English, 0))
	assert.Equal(t, "999", FormatCount(language.German, 999))
}

func TestSummary(t *testing.T) {
	totals := internal.Totals{LinesRead: 3, LinesRemoved: 1}
	assert.Equal(t, "Removed 1 lines from a total of 3 lines read.", Summary(language.English, totals))

	totals = internal.Totals{LinesRead: 2500000, LinesRemoved: 1200}
	assert.Equal(t, "Removed 1.200 lines from a total of 2.500.000 lines read.", Summary(language.German, totals))
}

func TestPrint(t *testing.T) {
	result := &sieve.Result{
		Totals:    internal.Totals{LinesRead: 10, LinesRemoved: 4},
		Processed: 2,
		Failures: []internal.FailureRecord{
			internal.NewFailureRecord("/logs/broken.gz", internal.Errorf(internal.KindCodec, "/logs/broken.gz", "not gzip")),
		},
		Skipped: 3,
	}

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, result, language.English))

	out := buf.String()
	assert.Contains(t, out, "Removed 4 lines from a total of 10 lines read.\n")
	assert.Contains(t, out, "1 files could not be processed:")
	assert.Contains(t, out, "/logs/broken.gz [CodecError]")
	assert.Contains(t, out, "3 files were not processed")
}

func TestPrint_Clean(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, &sieve.Result{}, language.English))
	assert.Equal(t, "Removed 0 lines from a total of 0 lines read.\n", buf.String())
}
