package temporal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/rohankatakam/histblame/internal/errors"
)

func TestParseFileHistory(t *testing.T) {
	// Output of git log --stat=1000 --follow --pretty=format:%H%n%aN%n%aE
	gitLogOutput := `bbb222
Bob
b@x.com
 a.txt | 1 +
 1 file changed, 1 insertion(+)

aaa111
Alice
a@x.com
 a.txt | 7 +++++--
 1 file changed, 5 insertions(+), 2 deletions(-)
`

	records, err := ParseFileHistory("a.txt", gitLogOutput)
	require.NoError(t, err)
	require.Len(t, records, 2)

	bob := records[0]
	assert.Equal(t, "bbb222", bob.CommitID)
	assert.Equal(t, "Bob", bob.AuthorName)
	assert.Equal(t, "b@x.com", bob.AuthorEmail)
	assert.Equal(t, "a.txt", bob.FilePath)
	assert.Equal(t, "a.txt", bob.FileOperation)
	assert.Equal(t, 1, bob.Insertions)
	assert.Equal(t, 0, bob.Deletions)
	assert.Equal(t, 1, bob.TotalChanges())

	alice := records[1]
	assert.Equal(t, "aaa111", alice.CommitID)
	assert.Equal(t, 5, alice.Insertions)
	assert.Equal(t, 2, alice.Deletions)
	assert.Equal(t, 7, alice.TotalChanges())
}

func TestParseFileHistoryEmpty(t *testing.T) {
	for _, output := range []string{"", "\n", "  \n\n"} {
		records, err := ParseFileHistory("a.txt", output)
		require.NoError(t, err)
		assert.Empty(t, records)
	}
}

func TestParseFileHistoryRename(t *testing.T) {
	output := "ccc333\nCarol\nc@x.com\n src/{old.go => new.go} | 4 ++--\n 1 file changed, 2 insertions(+), 2 deletions(-)\n"

	records, err := ParseFileHistory("src/new.go", output)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "src/{old.go => new.go}", records[0].FileOperation)
	assert.Equal(t, "src/new.go", records[0].FilePath)
}

func TestParseFileHistoryCRLF(t *testing.T) {
	output := "aaa111\r\nAlice\r\na@x.com\r\n a.txt | 3 +++\r\n 1 file changed, 3 insertions(+)\r\n"

	records, err := ParseFileHistory("a.txt", output)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a@x.com", records[0].AuthorEmail)
	assert.Equal(t, 3, records[0].Insertions)
}

func TestParseFileHistoryStopsAtFirstBadBlock(t *testing.T) {
	output := "aaa111\nAlice\na@x.com\n a.txt | 1 +\n 1 file changed, 1 insertion(+)\n\nbbb222\nBob\nb@x.com\n"

	records, err := ParseFileHistory("a.txt", output)
	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, errors.Is(err, ErrMalformedBlock))
}

func TestParseChangeRecordTrailers(t *testing.T) {
	tests := []struct {
		name       string
		trailer    string
		insertions int
		deletions  int
	}{
		{"both clauses", " 1 file changed, 5 insertions(+), 2 deletions(-)", 5, 2},
		{"singular both", " 1 file changed, 1 insertion(+), 1 deletion(-)", 1, 1},
		{"insertions only", " 1 file changed, 1 insertion(+)", 1, 0},
		{"deletions only", " 1 file changed, 3 deletions(-)", 0, 3},
		{"zero counts", " 1 file changed, 0 insertions(+), 0 deletions(-)", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := []string{"sha", "Alice", "a@x.com", " a.txt | 3 ++-", tt.trailer}
			record, err := ParseChangeRecord("a.txt", block)
			require.NoError(t, err)
			assert.Equal(t, tt.insertions, record.Insertions)
			assert.Equal(t, tt.deletions, record.Deletions)
			assert.Equal(t, tt.insertions+tt.deletions, record.TotalChanges())
		})
	}
}

func TestParseChangeRecordUnrecognizedTrailer(t *testing.T) {
	trailers := []string{
		" 1 file changed",
		" a.png | Bin 0 -> 1024 bytes",
		" 1 file changed, many insertions(+)",
		" 1 file changed, 2 modifications",
		" 1 file changed, 2 insertions(+), 3 insertions(+)",
		" 1 file changed, 1 insertion(+), 1 deletion(-), 1 other",
		" 1 file changed, -1 insertion(+)",
	}

	for _, trailer := range trailers {
		t.Run(trailer, func(t *testing.T) {
			block := []string{"sha", "Alice", "a@x.com", " a.txt | 3 ++-", trailer}
			_, err := ParseChangeRecord("a.txt", block)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnrecognizedStatTrailer))
			var structured *cerrors.Error
			require.True(t, errors.As(err, &structured))
			assert.Equal(t, cerrors.ErrorTypeParse, structured.Type)
			assert.Equal(t, cerrors.SeverityCritical, structured.Severity)
		})
	}
}

func TestParseChangeRecordMalformedBlock(t *testing.T) {
	blocks := [][]string{
		{"sha", "Alice", "a@x.com"},
		{"sha", "Alice", "a@x.com", " a.txt | 1 +"},
		{"sha", "Alice", "a@x.com", " a.txt | 1 +", " 1 file changed, 1 insertion(+)", "extra"},
	}

	for _, block := range blocks {
		_, err := ParseChangeRecord("a.txt", block)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedBlock))
		assert.False(t, errors.Is(err, ErrUnrecognizedStatTrailer))
	}
}

func TestSplitCommitBlocks(t *testing.T) {
	blocks := SplitCommitBlocks("a\nb\n\nc\nd\n")
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, blocks)
	assert.Nil(t, SplitCommitBlocks(""))
}
