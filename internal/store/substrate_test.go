package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/firedoc/internal/codec"
	"github.com/roach88/firedoc/internal/path"
	"github.com/roach88/firedoc/internal/value"
)

func testRecord(ref string, props value.Value) Record {
	return Record{Reference: value.NewReference(path.MustParse(ref)), Properties: props}
}

// substrates returns one fresh instance of every backend.
func substrates(t *testing.T) map[string]Substrate {
	t.Helper()
	sqlite, err := Open(BackendSQLite, filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)

	all := map[string]Substrate{
		BackendSQLite: sqlite,
		BackendMemory: NewMemoryStore(),
	}
	t.Cleanup(func() {
		for _, s := range all {
			s.Close()
		}
	})
	return all
}

func TestSubstrate_InsertAndScanOrder(t *testing.T) {
	ctx := context.Background()
	for name, s := range substrates(t) {
		t.Run(name, func(t *testing.T) {
			recs := []Record{
				testRecord("/users/2", value.Boolean(false)),
				testRecord("/users/1", value.Null{}),
				testRecord("/users/1/posts/1", value.NewString("hello foo")),
				testRecord("/posts/2", value.NewArray(value.NewString("hello baz"))),
			}
			for _, rec := range recs {
				require.NoError(t, s.Insert(ctx, rec))
			}

			got, err := s.Scan(ctx)
			require.NoError(t, err)
			assert.Equal(t, recs, got)
		})
	}
}

func TestSubstrate_EmptyScan(t *testing.T) {
	ctx := context.Background()
	for name, s := range substrates(t) {
		t.Run(name, func(t *testing.T) {
			got, err := s.Scan(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestSubstrate_DuplicateKey(t *testing.T) {
	ctx := context.Background()
	for name, s := range substrates(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Insert(ctx, testRecord("/posts/1", value.NewMap())))

			err := s.Insert(ctx, testRecord("/posts/1", value.NewMap(value.E("other", value.Boolean(true)))))
			assert.ErrorIs(t, err, ErrDuplicateKey)

			got, err := s.Scan(ctx)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, value.NewMap(), got[0].Properties, "duplicate must not overwrite")
		})
	}
}

func TestSubstrate_ConcurrentDuplicateInserts(t *testing.T) {
	ctx := context.Background()
	for name, s := range substrates(t) {
		t.Run(name, func(t *testing.T) {
			const writers = 8
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				succeeded int
				dupes     int
			)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					err := s.Insert(ctx, testRecord("/race/1", value.NewMap(value.E("writer", value.NewInt(int64(i))))))
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						succeeded++
					case errors.Is(err, ErrDuplicateKey):
						dupes++
					}
				}(i)
			}
			wg.Wait()

			assert.Equal(t, 1, succeeded)
			assert.Equal(t, writers-1, dupes)
		})
	}
}

func TestSubstrate_ScanIsSnapshot(t *testing.T) {
	ctx := context.Background()
	for name, s := range substrates(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Insert(ctx, testRecord("/a/1", value.NewArray(value.NewInt(1)))))

			first, err := s.Scan(ctx)
			require.NoError(t, err)

			require.NoError(t, s.Insert(ctx, testRecord("/a/2", value.Null{})))
			first[0].Properties.(value.Array)[0] = value.NewInt(99)

			second, err := s.Scan(ctx)
			require.NoError(t, err)
			assert.Len(t, first, 1)
			assert.Len(t, second, 2)
			assert.Equal(t, value.NewArray(value.NewInt(1)), second[0].Properties)
		})
	}
}

func TestSubstrate_PreservesKindsAndOrder(t *testing.T) {
	ctx := context.Background()
	props := value.NewMap(
		value.E("z", value.NewDouble(1)),
		value.E("a", value.NewInt(1)),
		value.E("bytes", value.NewBytes([]byte{0xca, 0xfe})),
		value.E("nan", value.NaN{}),
	)
	for name, s := range substrates(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Insert(ctx, testRecord("/kinds/1", props)))

			got, err := s.Scan(ctx)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, props, got[0].Properties)
		})
	}
}

func TestSubstrate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, s := range substrates(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.Insert(ctx, testRecord("/a/1", value.NewMap())))
			_, err := s.Scan(ctx)
			assert.Error(t, err)
		})
	}
}

func TestSubstrate_UnencodableRecord(t *testing.T) {
	ctx := context.Background()
	for name, s := range substrates(t) {
		t.Run(name, func(t *testing.T) {
			for _, props := range []value.Value{
				value.NewMap(value.E("s", value.NewString("\xff"))),
				value.NewMap(value.E("g", value.NewGeoPoint(91, 0))),
			} {
				err := s.Insert(ctx, testRecord("/a/1", props))
				assert.ErrorIs(t, err, ErrUnencodable)
			}

			got, err := s.Scan(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestSubstrate_Fingerprint(t *testing.T) {
	ctx := context.Background()
	props := value.NewMap(value.E("n", value.NewInt(3)))
	want, err := codec.Fingerprint(props)
	require.NoError(t, err)

	for name, s := range substrates(t) {
		t.Run(name, func(t *testing.T) {
			fp, ok := s.(Fingerprinter)
			require.True(t, ok)

			rec := testRecord("/a/1", props)
			require.NoError(t, s.Insert(ctx, rec))

			got, found, err := fp.Fingerprint(ctx, rec.Reference)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, want, got)

			_, found, err = fp.Fingerprint(ctx, value.NewReference(path.MustParse("/a/2")))
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("json", t.TempDir())
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestOpen_DefaultsToSQLite(t *testing.T) {
	s, err := Open("", filepath.Join(t.TempDir(), "default.db"))
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLiteStore{}, s)
}

func TestMemoryStore_CloseDropsData(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.Insert(ctx, testRecord("/a/1", value.NewMap())))
	require.NoError(t, m.Close())

	got, err := m.Scan(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
