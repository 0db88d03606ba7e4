package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/dreamware/shardsim/internal/allocator"
	"github.com/dreamware/shardsim/internal/shard"
)

// ErrInvalidConfig is returned when a cluster shape falls outside the accepted range
var ErrInvalidConfig = errors.New("invalid cluster config")

// Config is the shape of a simulated cluster
type Config struct {
	Nodes     int `json:"nodes" mapstructure:"nodes"`
	Primaries int `json:"primaries" mapstructure:"primaries"`
	Replicas  int `json:"replicas" mapstructure:"replicas"`
}

// TotalCopies returns how many shard copies the shape describes
func (c Config) TotalCopies() int {
	return c.Primaries * (1 + c.Replicas)
}

func (c Config) String() string {
	return fmt.Sprintf("%d,%d,%d", c.Nodes, c.Primaries, c.Replicas)
}

// ParseConfig reads a shape written as "nodes,primaries,replicas"
func ParseConfig(s string) (Config, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Config{}, errors.Errorf("expected nodes,primaries,replicas, got %q", s)
	}

	values := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Config{}, errors.Wrapf(err, "parse %q", s)
		}
		values[i] = v
	}
	return Config{Nodes: values[0], Primaries: values[1], Replicas: values[2]}, nil
}

// Range is an inclusive bound. A zero Max means no upper bound.
type Range struct {
	Min int `json:"min" mapstructure:"min"`
	Max int `json:"max" mapstructure:"max"`
}

func (r Range) check(name string, v int) error {
	if v < 0 {
		return errors.Errorf("%s must not be negative, got %d", name, v)
	}
	if v < r.Min {
		return errors.Errorf("%s must be at least %d, got %d", name, r.Min, v)
	}
	if r.Max > 0 && v > r.Max {
		return errors.Errorf("%s must be at most %d, got %d", name, r.Max, v)
	}
	return nil
}

// Bounds is the range policy applied to incoming shapes.
// The allocator itself accepts any non-negative shape; bounds only keep a
// front end within what it can draw.
type Bounds struct {
	Nodes     Range `json:"nodes" mapstructure:"nodes"`
	Primaries Range `json:"primaries" mapstructure:"primaries"`
	Replicas  Range `json:"replicas" mapstructure:"replicas"`
}

// DefaultBounds returns the ranges offered by the slider controls
func DefaultBounds() Bounds {
	return Bounds{
		Nodes:     Range{Min: 1, Max: 10},
		Primaries: Range{Min: 1, Max: 20},
		Replicas:  Range{Min: 0, Max: 2},
	}
}

// Unbounded only rejects negative values
func Unbounded() Bounds {
	return Bounds{}
}

// Validate checks the shape against the bounds and reports every violation.
// The returned error matches ErrInvalidConfig with errors.Is.
func (c Config) Validate(b Bounds) error {
	err := multierr.Combine(
		b.Nodes.check("nodes", c.Nodes),
		b.Primaries.check("primaries", c.Primaries),
		b.Replicas.check("replicas", c.Replicas),
	)
	if err != nil {
		return &ConfigError{Config: c, Err: err}
	}
	return nil
}

// ConfigError wraps every bound violation found for a shape
type ConfigError struct {
	Config Config
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s %s: %v", ErrInvalidConfig, e.Config, e.Err)
}

// Is makes errors.Is(err, ErrInvalidConfig) hold
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Unwrap returns the combined violations
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Violations lists the individual problems
func (e *ConfigError) Violations() []error {
	return multierr.Errors(e.Err)
}

// AllocateRequest asks a coordinator to run an allocation for a session
type AllocateRequest struct {
	Session string `json:"session"`
	Config
}

// ShardView is one badge on a node card
type ShardView struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	ShardID   int    `json:"shard_id"`
	Primary   bool   `json:"primary"`
	Slot      int    `json:"slot"`
	Relocated bool   `json:"relocated"`
}

// NodeView is one node card
type NodeView struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Primaries int         `json:"primaries"`
	Replicas  int         `json:"replicas"`
	Shards    []ShardView `json:"shards"`
}

// SnapshotView is the JSON form of an allocation result
type SnapshotView struct {
	Session             string      `json:"session,omitempty"`
	Config              Config      `json:"config"`
	Health              string      `json:"health"`
	Nodes               []NodeView  `json:"nodes"`
	Unassigned          []ShardView `json:"unassigned"`
	UnassignedPrimaries int         `json:"unassigned_primaries"`
	UnassignedReplicas  int         `json:"unassigned_replicas"`
	Relocated           []string    `json:"relocated"`
	ActiveShardsPercent float64     `json:"active_shards_percent"`
	TotalCopies         int         `json:"total_copies"`
}

func newShardView(c shard.Copy, relocated bool) ShardView {
	return ShardView{
		ID:        c.ID,
		Label:     c.Label(),
		ShardID:   c.ShardID,
		Primary:   c.IsPrimary(),
		Slot:      c.Slot,
		Relocated: relocated,
	}
}

// NewSnapshotView renders a snapshot for the wire
func NewSnapshotView(session string, cfg Config, snap *allocator.Snapshot) SnapshotView {
	view := SnapshotView{
		Session:             session,
		Config:              cfg,
		Health:              string(snap.Health),
		Nodes:               make([]NodeView, 0, len(snap.Nodes)),
		Unassigned:          make([]ShardView, 0, len(snap.Unassigned)),
		Relocated:           append([]string{}, snap.Relocated...),
		ActiveShardsPercent: snap.ActivePercent(),
		TotalCopies:         snap.Total(),
	}

	for _, n := range snap.Nodes {
		nv := NodeView{
			ID:        n.ID,
			Name:      n.Name,
			Primaries: n.Primaries(),
			Replicas:  len(n.Shards) - n.Primaries(),
			Shards:    make([]ShardView, 0, len(n.Shards)),
		}
		for _, c := range n.Shards {
			nv.Shards = append(nv.Shards, newShardView(c, snap.IsRelocated(c.ID)))
		}
		view.Nodes = append(view.Nodes, nv)
	}

	for _, c := range snap.Unassigned {
		view.Unassigned = append(view.Unassigned, newShardView(c, false))
	}
	view.UnassignedPrimaries, view.UnassignedReplicas = snap.UnassignedByRole()

	return view
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

// PostJSON sends body as JSON and decodes the response into out, if non-nil
func PostJSON(ctx context.Context, url string, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return do(req, out)
}

// GetJSON fetches url and decodes the JSON response into out
func GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return do(req, out)
}

func do(req *http.Request, out any) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.Method, req.URL)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &StatusError{URL: req.URL.String(), Code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decode response")
}

// StatusError reports a non-2xx response
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %s: %d", e.URL, e.Code)
}
