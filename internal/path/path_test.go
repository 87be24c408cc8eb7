package path

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		segments []string
	}{
		{"root empty", "", nil},
		{"root slash", "/", nil},
		{"collection", "/users", []string{"users"}},
		{"document", "/users/1", []string{"users", "1"}},
		{"no leading slash", "users/1", []string{"users", "1"}},
		{"nested", "/users/1/posts/2", []string{"users", "1", "posts", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, len(tt.segments), p.Len())
			if tt.segments != nil {
				assert.Equal(t, tt.segments, p.Segments())
			}
		})
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	inputs := []string{"/users/", "users/", "//", "/users//1", "a//b", "//users"}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPath))

			var pathErr *InvalidPathError
			require.True(t, errors.As(err, &pathErr))
			assert.Equal(t, input, pathErr.Text)
		})
	}
}

func TestNew(t *testing.T) {
	p, err := New("users", "1")
	require.NoError(t, err)
	assert.Equal(t, "/users/1", p.String())

	_, err = New("users", "")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = New("users/1")
	assert.ErrorIs(t, err, ErrInvalidPath)

	root, err := New()
	require.NoError(t, err)
	assert.True(t, root.IsRoot())
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		input      string
		document   bool
		collection bool
	}{
		{"/", false, true},
		{"/users", false, true},
		{"/users/1", true, false},
		{"/posts", false, true},
		{"/posts/1", true, false},
		{"/users/1/posts", false, true},
		{"/users/1/posts/2", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p := MustParse(tt.input)
			assert.Equal(t, tt.document, p.IsDocument())
			assert.Equal(t, tt.collection, p.IsCollection())
		})
	}
}

func TestParentAndCollectionID(t *testing.T) {
	doc := MustParse("/users/1/posts/2")
	assert.Equal(t, "/users/1/posts", doc.Parent().String())
	assert.Equal(t, "/users/1", doc.Parent().Parent().String())
	assert.Equal(t, "posts", doc.CollectionID())
	assert.Equal(t, "2", doc.Last())

	top := MustParse("/users/1")
	assert.Equal(t, "users", top.CollectionID())
	assert.Equal(t, "/users", top.Parent().String())

	assert.Equal(t, "", MustParse("/users").CollectionID())
	assert.Equal(t, "", Root().CollectionID())
	assert.True(t, Root().Parent().IsRoot())
	assert.True(t, MustParse("/users").Parent().IsRoot())
}

func TestSegmentOutOfRange(t *testing.T) {
	p := MustParse("/users/1")
	assert.Equal(t, "users", p.Segment(0))
	assert.Equal(t, "1", p.Segment(1))
	assert.Equal(t, "", p.Segment(2))
	assert.Equal(t, "", p.Segment(-1))
	assert.Equal(t, "", Root().Segment(0))
}

func TestParentDoesNotAliasChild(t *testing.T) {
	doc := MustParse("/users/1/posts/2")
	parent := doc.Parent()

	child, err := parent.Child("9")
	require.NoError(t, err)
	assert.Equal(t, "/users/1/posts/9", child.String())
	assert.Equal(t, "/users/1/posts/2", doc.String())
}

func TestHasPrefix(t *testing.T) {
	doc := MustParse("/users/1/posts/2")
	assert.True(t, doc.HasPrefix(Root()))
	assert.True(t, doc.HasPrefix(MustParse("/users/1")))
	assert.True(t, doc.HasPrefix(doc))
	assert.False(t, doc.HasPrefix(MustParse("/users/2")))
	assert.False(t, MustParse("/users").HasPrefix(doc))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"/", "/", 0},
		{"/", "/users", -1},
		{"/users", "/users/1", -1},
		{"/users/1", "/users/2", -1},
		{"/users/10", "/users/2", -1},
		{"/posts/1", "/users/1", -1},
		{"/users/1/posts/1", "/users/2", -1},
		{"/users/1", "/users/1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, Compare(MustParse(tt.a), MustParse(tt.b)))
			assert.Equal(t, -tt.expected, Compare(MustParse(tt.b), MustParse(tt.a)))
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, input := range []string{"/", "/users", "/users/1", "/a/b/c/d"} {
		p := MustParse(input)
		reparsed, err := Parse(p.String())
		require.NoError(t, err)
		assert.True(t, p.Equal(reparsed))
		assert.Equal(t, input, p.String())
	}
}
