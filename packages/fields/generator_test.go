package fields

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFixed(t *testing.T) {
	g := NewGenerator()

	for i := 0; i < 3; i++ {
		value, err := g.Generate(Spec{Name: "name", Kind: KindFixed, Value: "x"})
		require.NoError(t, err)
		assert.Equal(t, "x", value, "fixed generator must be idempotent")
	}
}

func TestGenerateFixedWithoutValue(t *testing.T) {
	g := NewGenerator()

	_, err := g.Generate(Spec{Name: "name", Kind: KindFixed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a value")
}

func TestGenerateUnknownKind(t *testing.T) {
	g := NewGenerator()

	_, err := g.Generate(Spec{Name: "name", Kind: "sequence"})
	require.Error(t, err)
}

func TestGenerateUUID(t *testing.T) {
	g := NewGenerator()

	value, err := g.Generate(Spec{Name: "id", Kind: KindUUID})
	require.NoError(t, err)

	parsed, err := uuid.Parse(value)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestGenerateTimestamp(t *testing.T) {
	g := NewGenerator()

	before := time.Now().UnixMilli()
	value, err := g.Generate(Spec{Name: "ts", Kind: KindTimestamp})
	require.NoError(t, err)
	after := time.Now().UnixMilli()

	ms, err := strconv.ParseInt(value, 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ms, before)
	assert.LessOrEqual(t, ms, after)
}

func TestGenerateRandom(t *testing.T) {
	g := NewGenerator()

	a, err := g.Generate(Spec{Name: "r", Kind: KindRandom})
	require.NoError(t, err)
	b, err := g.Generate(Spec{Name: "r", Kind: KindRandom})
	require.NoError(t, err)

	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)
}

func TestCounterConcurrentUniqueness(t *testing.T) {
	g := NewGenerator()
	const calls = 200

	var mu sync.Mutex
	seen := make(map[string]bool, calls)

	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := g.Generate(Spec{Name: "n", Kind: KindCounter})
			assert.NoError(t, err)
			mu.Lock()
			seen[value] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, calls, "concurrent counter values must be pairwise distinct")
}

func TestGenerateAllSplitsByTarget(t *testing.T) {
	g := NewGenerator()

	headers, body, err := g.GenerateAll([]Spec{
		{Name: "X-Session", Kind: KindFixed, Value: "s1", Target: TargetHeader},
		{Name: "taskID", Kind: KindUUID, Target: TargetBody},
		{Name: "X-Seq", Kind: KindCounter}, // default target is header
	})
	require.NoError(t, err)

	assert.Equal(t, "s1", headers["X-Session"])
	assert.Equal(t, "1", headers["X-Seq"])
	assert.NotEmpty(t, body["taskID"])
	assert.NotContains(t, headers, "taskID")
}

func TestExpandBodyPlaceholders(t *testing.T) {
	body := ExpandBody(`{"taskName":"{taskID}","taskID":"{taskID}"}`, map[string]string{
		"taskID": "abc",
	})
	assert.Equal(t, `{"taskName":"abc","taskID":"abc"}`, body)
}

func TestExpandBodySynthesizesJSON(t *testing.T) {
	body := ExpandBody("", map[string]string{"a": "1", "b": "2"})
	assert.JSONEq(t, `{"a":"1","b":"2"}`, body)
}

func TestExpandBodyNoFields(t *testing.T) {
	assert.Equal(t, "unchanged", ExpandBody("unchanged", nil))
	assert.Equal(t, "", ExpandBody("", nil))
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr string
	}{
		{"valid uuid", Spec{Name: "id", Kind: KindUUID, Target: TargetHeader}, ""},
		{"valid fixed", Spec{Name: "id", Kind: KindFixed, Value: "v"}, ""},
		{"missing name", Spec{Kind: KindUUID}, "requires a name"},
		{"fixed without value", Spec{Name: "id", Kind: KindFixed}, "requires a value"},
		{"unknown kind", Spec{Name: "id", Kind: "seq"}, "unknown generator"},
		{"unknown target", Spec{Name: "id", Kind: KindUUID, Target: "query"}, "unknown target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
