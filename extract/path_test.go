package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want Path
	}{
		{"", nil},
		{"docs", Path{Key("docs")}},
		{"result-set.docs", DefaultPath},
		{"results[0].docs", Path{Key("results"), Index(0), Key("docs")}},
		{"[3]", Path{Index(3)}},
		{"a[1][22].b", Path{Key("a"), Index(1), Index(22), Key("b")}},
		{"a b.c", Path{Key("a b"), Key("c")}},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			got, err := ParsePath(test.in)
			require.NoError(t, err)
			assert.True(t, test.want.Equal(got), "got %v", got)
			assert.Equal(t, test.in, got.String())
		})
	}
}

func TestParsePathErrors(t *testing.T) {
	for _, in := range []string{
		".",
		"a.",
		".a",
		"a..b",
		"a.[0]",
		"a[",
		"a[]",
		"a[x]",
		"a[-1]",
		"a[0]b",
	} {
		_, err := ParsePath(in)
		assert.Error(t, err, "path %q", in)
	}
}

func TestMustParsePathPanics(t *testing.T) {
	assert.Panics(t, func() { MustParsePath("a..b") })
}

func TestSegment(t *testing.T) {
	k := Key("docs")
	assert.False(t, k.IsIndex())
	assert.Equal(t, "docs", k.Key())
	assert.Equal(t, -1, k.Index())

	i := Index(4)
	assert.True(t, i.IsIndex())
	assert.Equal(t, "", i.Key())
	assert.Equal(t, 4, i.Index())
	assert.Equal(t, "[4]", i.String())
}

func TestNumberMode(t *testing.T) {
	for _, m := range []NumberMode{LosslessDecimal, NativeFloat} {
		got, err := ParseNumberMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseNumberMode("decimal128")
	assert.Error(t, err)
}
