package scanner

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/bilog/pkg/detector"
)

const sampleLog = `starting up, no clock yet
2023-01-02 00:00:00 first entry
    at continuation line
2023-01-02 00:00:05.250 middle entry
2023-01-02 00:01:00Z last entry
  trailing stack frame
`

func utcFormat(t *testing.T) *detector.TimeFormat {
	t.Helper()
	f, ok := detector.MustNewRegistry(detector.WithLocalOffset(0)).Lookup("RFC3339")
	require.True(t, ok)
	return f
}

func writeLog(t *testing.T, content string) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func TestFileTimeRange_TwoLines(t *testing.T) {
	f := writeLog(t, "2023-01-02 00:00:00\n2023-01-02 00:00:01\n")

	rng, err := New().FileTimeRange(f, utcFormat(t))
	require.NoError(t, err)

	assert.Equal(t, int64(0), rng.Start.Offset)
	assert.Equal(t, int64(20), rng.End.Offset)
	assert.Equal(t, ts("2023-01-02T00:00:00Z"), rng.Start.Timestamp)
	assert.Equal(t, int64(1000), rng.End.Timestamp.UnixMilli()-rng.Start.Timestamp.UnixMilli())
	assert.Equal(t, time.Second, rng.Span())
	assert.False(t, rng.SingleLine())
}

func TestFileTimeRange_SampleLog(t *testing.T) {
	f := writeLog(t, sampleLog)

	rng, err := New().FileTimeRange(f, utcFormat(t))
	require.NoError(t, err)

	assert.Equal(t, int64(strings.Index(sampleLog, "2023-01-02 00:00:00")), rng.Start.Offset)
	assert.Equal(t, int64(strings.Index(sampleLog, "2023-01-02 00:01:00Z")), rng.End.Offset)
	assert.Equal(t, ts("2023-01-02T00:00:00Z"), rng.Start.Timestamp)
	assert.Equal(t, ts("2023-01-02T00:01:00Z"), rng.End.Timestamp)
}

func TestFileTimeRange_SingleLine(t *testing.T) {
	for _, content := range []string{
		"2023-01-02 10:00:00 only line\n",
		"2023-01-02 10:00:00 only line",
		"noise\n2023-01-02 10:00:00 only line\nnoise",
	} {
		f := writeLog(t, content)
		rng, err := New().FileTimeRange(f, utcFormat(t))
		require.NoError(t, err, "content %q", content)

		assert.True(t, rng.SingleLine(), "content %q", content)
		assert.Equal(t, rng.Start, rng.End)
		assert.Equal(t, int64(strings.Index(content, "2023")), rng.Start.Offset)
		assert.Zero(t, rng.Span())
	}
}

func TestFileTimeRange_ChunkSizeInvariance(t *testing.T) {
	content := sampleLog + "2023-01-02 00:02:00+01:00 " + strings.Repeat("x", 300) + "\nfooter"
	format := utcFormat(t)

	want, err := New(WithBufferSize(len(content))).FileTimeRange(strings.NewReader(content), format)
	require.NoError(t, err)

	sizes := []int{16, 64, 4096}
	for n := 1; n <= len(content); n++ {
		sizes = append(sizes, n)
	}
	for _, n := range sizes {
		got, err := New(WithBufferSize(n)).FileTimeRange(strings.NewReader(content), format)
		require.NoError(t, err, "buffer size %d", n)
		assert.Equal(t, want, got, "buffer size %d", n)
	}
}

func TestFileTimeRange_LineLongerThanBuffer(t *testing.T) {
	long := "2023-01-02 00:00:00 " + strings.Repeat("a", 5000)
	content := "noise\n" + long + "\n" + long + "\n"

	rng, err := New(WithBufferSize(16)).FileTimeRange(strings.NewReader(content), utcFormat(t))
	require.NoError(t, err)
	assert.Equal(t, int64(6), rng.Start.Offset)
	assert.Equal(t, int64(6+len(long)+1), rng.End.Offset)
}

func TestFileTimeRange_NoMatch(t *testing.T) {
	for _, content := range []string{"", "\n", "no timestamps\nanywhere here\n"} {
		_, err := New().FileTimeRange(strings.NewReader(content), utcFormat(t))
		assert.ErrorIs(t, err, ErrNoStartFound, "content %q", content)
	}
}

func TestScanBackward_NoMatch(t *testing.T) {
	content := "plain\ntext\n"
	s := New()
	_, err := s.scanBackward(strings.NewReader(content), int64(len(content)), make([]byte, 4), utcFormat(t))
	assert.ErrorIs(t, err, ErrNoEndFound)
}

func TestFileTimeRange_InvalidUTF8(t *testing.T) {
	content := "\xff\xfe binary junk\n2023-01-02 00:00:00\n"
	_, err := New().FileTimeRange(strings.NewReader(content), utcFormat(t))
	assert.ErrorIs(t, err, detector.ErrInvalidUTF8)
}

func TestFileTimeRange_UnparsableMatch(t *testing.T) {
	content := "2023-02-30 00:00:00 impossible date\n"
	_, err := New().FileTimeRange(strings.NewReader(content), utcFormat(t))
	assert.ErrorIs(t, err, detector.ErrInvalidCalendarDate)
	assert.Contains(t, err.Error(), "offset 0")
}

func TestFileTimeRange_LineTooLong(t *testing.T) {
	content := "header " + strings.Repeat("z", 100) + "\n2023-01-02 00:00:00\n"
	_, err := New(WithBufferSize(8), WithMaxLineLength(32)).FileTimeRange(strings.NewReader(content), utcFormat(t))
	assert.ErrorIs(t, err, ErrLineTooLong)
}

func TestFileTimeRange_RestoresCursor(t *testing.T) {
	f := writeLog(t, sampleLog)
	_, err := f.Seek(11, io.SeekStart)
	require.NoError(t, err)

	_, err = New(WithBufferSize(7)).FileTimeRange(f, utcFormat(t))
	require.NoError(t, err)

	pos, err := f.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(11), pos)

	// Still readable from the restored position.
	b := make([]byte, 4)
	_, err = io.ReadFull(f, b)
	require.NoError(t, err)
	assert.Equal(t, sampleLog[11:15], string(b))
}

// failingFile serves reads until failAt and errors after that.
type failingFile struct {
	*strings.Reader
	failAt int64
}

var errDisk = errors.New("simulated read failure")

func (f failingFile) ReadAt(p []byte, off int64) (int, error) {
	if off+int64(len(p)) > f.failAt {
		return 0, errDisk
	}
	return f.Reader.ReadAt(p, off)
}

func TestFileTimeRange_RestoresCursorOnError(t *testing.T) {
	tests := []struct {
		name    string
		content string
		failAt  int64
		want    error
	}{
		{"read failure", sampleLog, 10, errDisk},
		{"no match", "nothing\nat all\n", 1 << 20, ErrNoStartFound},
		{"invalid utf-8", "\xff\n", 1 << 20, detector.ErrInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := failingFile{Reader: strings.NewReader(tt.content), failAt: tt.failAt}
			_, err := f.Seek(3, io.SeekStart)
			require.NoError(t, err)

			_, err = New(WithBufferSize(4)).FileTimeRange(f, utcFormat(t))
			assert.ErrorIs(t, err, tt.want)

			pos, err := f.Seek(0, io.SeekCurrent)
			require.NoError(t, err)
			assert.Equal(t, int64(3), pos)
		})
	}
}

func TestReadChunk_ShortRead(t *testing.T) {
	buf := make([]byte, 8)
	err := readChunk(strings.NewReader("abc"), buf, 0)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	require.NoError(t, readChunk(strings.NewReader("abcdefgh"), buf, 0))
	assert.Equal(t, "abcdefgh", string(buf))
}

func TestNew_Options(t *testing.T) {
	s := New()
	assert.Equal(t, DefaultBufferSize, s.BufferSize())
	assert.Equal(t, DefaultMaxLineLength, s.maxLineLength)

	s = New(WithBufferSize(0), WithMaxLineLength(-1), WithLogger(nil))
	assert.Equal(t, DefaultBufferSize, s.BufferSize())
	assert.Equal(t, DefaultMaxLineLength, s.maxLineLength)
	assert.NotNil(t, s.logger)

	assert.Equal(t, 128, New(WithBufferSize(128)).BufferSize())
}
