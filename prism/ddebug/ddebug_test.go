package ddebug

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAdd(t *testing.T) {
	s := NewSet(0x10, 0x20)
	assert.True(t, s.Add(0x30))
	assert.False(t, s.Add(0x10))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []uintptr{0x10, 0x20, 0x30}, s.Sites())
	assert.True(t, s.Contains(0x20))
	assert.False(t, s.Contains(0x40))

	var nilSet *Set
	assert.False(t, nilSet.Contains(0x10))
	assert.Zero(t, nilSet.Len())
	assert.Nil(t, nilSet.Sites())
}

func TestSetConcurrentAdd(t *testing.T) {
	s := NewSet()
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Every goroutine inserts the same 1000 sites plus its own.
			for i := range 1000 {
				s.Add(uintptr(i))
			}
			s.Add(uintptr(10000 + g))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1008, s.Len())
	assert.Len(t, s.Sites(), 1008)
}

func TestReadSet(t *testing.T) {
	in := `# candidate sites
0x401000 main.f /src/main.go:10

0x401020	main.g
  4198464
`
	s, err := ReadSet(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []uintptr{0x401000, 0x401020, 4198464}, s.Sites())
}

func TestReadSetMalformed(t *testing.T) {
	_, err := ReadSet(strings.NewReader("0x10\nmain.f 0x20\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedSite)
	assert.Contains(t, err.Error(), "line 2")
}

func TestWriteReadRoundTrip(t *testing.T) {
	pcs := make([]uintptr, 4)
	n := runtime.Callers(1, pcs)
	require.Positive(t, n)

	s := NewSet(pcs[:n]...)
	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "TestWriteReadRoundTrip")

	back, err := ReadSet(&buf)
	require.NoError(t, err)
	assert.Equal(t, s.Sites(), back.Sites())
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.txt")
	require.NoError(t, NewSet(3, 1, 2).Save(path))

	s, err := LoadSet(path)
	require.NoError(t, err)
	assert.Equal(t, []uintptr{1, 2, 3}, s.Sites())

	_, err = LoadSet(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestFilterExcludeWins(t *testing.T) {
	f := NewFilterSets(NewSet(0x10, 0x20), NewSet(0x20), nil)
	assert.False(t, f.Bypass(0x10), "included site")
	assert.True(t, f.Bypass(0x20), "site in both sets")
	assert.True(t, f.Bypass(0x30), "site outside the include set")
	assert.Equal(t, Stats{Bypassed: 2, Instrumented: 1}, f.Stats())
}

func TestFilterNoInclude(t *testing.T) {
	f := NewFilterSets(nil, NewSet(0x20), nil)
	assert.False(t, f.Bypass(0x10))
	assert.True(t, f.Bypass(0x20))
}

func TestFilterGenerate(t *testing.T) {
	gen := NewSet()
	f := NewFilterSets(nil, NewSet(0x30), gen)
	f.Bypass(0x10)
	f.Bypass(0x20)
	f.Bypass(0x10)
	f.Bypass(0x30)
	assert.Equal(t, []uintptr{0x10, 0x20}, f.Generated().Sites())

	// With an include set nothing is recorded.
	gen2 := NewSet()
	f2 := NewFilterSets(NewSet(0x10), nil, gen2)
	f2.Bypass(0x10)
	assert.Zero(t, gen2.Len())
}

func TestFilterFromFiles(t *testing.T) {
	dir := t.TempDir()
	include := filepath.Join(dir, "include.txt")
	exclude := filepath.Join(dir, "exclude.txt")
	generate := filepath.Join(dir, "generate.txt")
	require.NoError(t, os.WriteFile(include, []byte("0x10\n0x20\n"), 0o644))
	require.NoError(t, os.WriteFile(exclude, []byte("0x20\n"), 0o644))

	f, err := NewFilter(Config{Include: include, Exclude: exclude})
	require.NoError(t, err)
	assert.False(t, f.Bypass(0x10))
	assert.True(t, f.Bypass(0x20))
	assert.NoError(t, f.Finalize())

	g, err := NewFilter(Config{Generate: generate})
	require.NoError(t, err)
	g.Bypass(0x40)
	require.NoError(t, g.Finalize())
	s, err := LoadSet(generate)
	require.NoError(t, err)
	assert.Equal(t, []uintptr{0x40}, s.Sites())

	_, err = NewFilter(Config{Include: filepath.Join(dir, "nope")})
	assert.Error(t, err)
}
