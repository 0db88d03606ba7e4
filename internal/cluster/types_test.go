package cluster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/shardsim/internal/allocator"
)

// TestParseConfig tests parsing of the compact shape form
func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Config
		wantErr bool
	}{
		{name: "plain", input: "3,5,1", want: Config{Nodes: 3, Primaries: 5, Replicas: 1}},
		{name: "spaces", input: " 2, 2 ,0", want: Config{Nodes: 2, Primaries: 2}},
		{name: "negative parses", input: "-1,2,0", want: Config{Nodes: -1, Primaries: 2}},
		{name: "too few parts", input: "3,5", wantErr: true},
		{name: "too many parts", input: "1,2,3,4", wantErr: true},
		{name: "not a number", input: "a,2,0", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfig(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestConfigString checks that String round-trips through ParseConfig
func TestConfigString(t *testing.T) {
	cfg := Config{Nodes: 4, Primaries: 7, Replicas: 2}
	assert.Equal(t, "4,7,2", cfg.String())

	parsed, err := ParseConfig(cfg.String())
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
	assert.Equal(t, 21, cfg.TotalCopies())
}

// TestValidate tests bound checking
func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		bounds     Bounds
		violations int
	}{
		{name: "default bounds ok", cfg: Config{Nodes: 3, Primaries: 3, Replicas: 1}, bounds: DefaultBounds()},
		{name: "upper edges ok", cfg: Config{Nodes: 10, Primaries: 20, Replicas: 2}, bounds: DefaultBounds()},
		{name: "zero nodes rejected by default", cfg: Config{Nodes: 0, Primaries: 2}, bounds: DefaultBounds(), violations: 1},
		{name: "zero nodes allowed unbounded", cfg: Config{Nodes: 0, Primaries: 2}, bounds: Unbounded()},
		{name: "large values allowed unbounded", cfg: Config{Nodes: 100, Primaries: 500, Replicas: 9}, bounds: Unbounded()},
		{name: "negative always rejected", cfg: Config{Nodes: 1, Primaries: 1, Replicas: -1}, bounds: Unbounded(), violations: 1},
		{name: "every violation reported", cfg: Config{Nodes: -1, Primaries: 21, Replicas: 3}, bounds: DefaultBounds(), violations: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.bounds)
			if tt.violations == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Len(t, cfgErr.Violations(), tt.violations)
			assert.Equal(t, tt.cfg, cfgErr.Config)
		})
	}
}

// TestNewSnapshotView verifies the JSON rendering of a snapshot
func TestNewSnapshotView(t *testing.T) {
	_, hist := allocator.Allocate(1, 2, 1, nil)
	snap, _ := allocator.Allocate(2, 2, 1, hist)

	view := NewSnapshotView("demo", Config{Nodes: 2, Primaries: 2, Replicas: 1}, snap)

	assert.Equal(t, "demo", view.Session)
	assert.Equal(t, "green", view.Health)
	assert.Equal(t, 4, view.TotalCopies)
	assert.Equal(t, float64(100), view.ActiveShardsPercent)
	require.Len(t, view.Nodes, 2)
	assert.Empty(t, view.Unassigned)

	// Node-2 took P1 from Node-1
	assert.Equal(t, []string{"1-p"}, view.Relocated)
	n2 := view.Nodes[1]
	assert.Equal(t, "Node-2", n2.Name)
	require.NotEmpty(t, n2.Shards)
	assert.Equal(t, "P1", n2.Shards[0].Label)
	assert.True(t, n2.Shards[0].Relocated)
	assert.Equal(t, 1, n2.Primaries)
	assert.Equal(t, 1, n2.Replicas)

	// Encodes with stable field names
	data, err := json.Marshal(view)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "unassigned_primaries")
	assert.Contains(t, decoded, "active_shards_percent")
}

// TestNewSnapshotViewUnassigned checks the unassigned panel counts
func TestNewSnapshotViewUnassigned(t *testing.T) {
	snap, _ := allocator.Allocate(0, 2, 1, nil)
	view := NewSnapshotView("", Config{Primaries: 2, Replicas: 1}, snap)

	assert.Equal(t, "red", view.Health)
	assert.Len(t, view.Unassigned, 4)
	assert.Equal(t, 2, view.UnassignedPrimaries)
	assert.Equal(t, 2, view.UnassignedReplicas)
	assert.Equal(t, float64(0), view.ActiveShardsPercent)
	assert.NotNil(t, view.Nodes)
	assert.NotNil(t, view.Relocated)
}

// TestAllocateRequestJSON checks the embedded config is flattened on the wire
func TestAllocateRequestJSON(t *testing.T) {
	var req AllocateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"session":"s1","nodes":3,"primaries":2,"replicas":1}`), &req))
	assert.Equal(t, "s1", req.Session)
	assert.Equal(t, Config{Nodes: 3, Primaries: 2, Replicas: 1}, req.Config)
}

// TestPostJSON tests the POST helper against a test server
func TestPostJSON(t *testing.T) {
	t.Run("successful post with response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req AllocateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			_ = json.NewEncoder(w).Encode(SnapshotView{Session: req.Session, Config: req.Config})
		}))
		defer server.Close()

		var out SnapshotView
		err := PostJSON(context.Background(), server.URL, AllocateRequest{Session: "x", Config: Config{Nodes: 1}}, &out)
		require.NoError(t, err)
		assert.Equal(t, "x", out.Session)
		assert.Equal(t, 1, out.Config.Nodes)
	})

	t.Run("nil output skips decoding", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		assert.NoError(t, PostJSON(context.Background(), server.URL, map[string]int{"a": 1}, nil))
	})

	t.Run("error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad", http.StatusBadRequest)
		}))
		defer server.Close()

		err := PostJSON(context.Background(), server.URL, struct{}{}, nil)
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	})

	t.Run("unencodable body", func(t *testing.T) {
		err := PostJSON(context.Background(), "http://127.0.0.1:1", make(chan int), nil)
		assert.Error(t, err)
	})
}

// TestGetJSON tests the GET helper
func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(map[string][]string{"sessions": {"a", "b"}})
	}))
	defer server.Close()

	var out struct {
		Sessions []string `json:"sessions"`
	}
	require.NoError(t, GetJSON(context.Background(), server.URL, &out))
	assert.Equal(t, []string{"a", "b"}, out.Sessions)

	t.Run("context timeout", func(t *testing.T) {
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer slow.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.Error(t, GetJSON(ctx, slow.URL, &out))
	})
}
