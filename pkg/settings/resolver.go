package settings

import (
	"errors"
	"fmt"

	opts "github.com/goliatone/go-options"
	layering "github.com/goliatone/go-options/layering"
)

// Snapshot is the payload of one scope layer.
type Snapshot struct {
	Scope      opts.Scope
	Data       map[string]any
	SnapshotID string
}

// Resolver exposes typed lookups over merged settings layers.
type Resolver struct {
	options *opts.Options[map[string]any]
}

// ErrNoSnapshots signals that at least one scope snapshot must be provided.
var ErrNoSnapshots = errors.New("settings: at least one snapshot is required")

// NewResolver merges the snapshots by scope priority.
func NewResolver(snapshots ...Snapshot) (*Resolver, error) {
	if len(snapshots) == 0 {
		return nil, ErrNoSnapshots
	}

	layers := make([]opts.Layer[map[string]any], 0, len(snapshots))
	for _, snap := range snapshots {
		if snap.Scope.Name == "" {
			return nil, fmt.Errorf("settings: snapshot scope name is required")
		}
		layerOpts := []opts.LayerOption[map[string]any]{}
		if snap.SnapshotID != "" {
			layerOpts = append(layerOpts, opts.WithSnapshotID[map[string]any](snap.SnapshotID))
		}
		layers = append(layers, opts.NewLayer(snap.Scope, cloneMap(snap.Data), layerOpts...))
	}

	stack, err := opts.NewStack(layers...)
	if err != nil {
		return nil, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return nil, err
	}
	return &Resolver{options: merged}, nil
}

// Resolve fetches the value stored at a dotted path with its trace.
func (r *Resolver) Resolve(path string) (any, opts.Trace, error) {
	if r == nil || r.options == nil {
		return nil, opts.Trace{Path: path}, fmt.Errorf("settings: resolver not initialised")
	}
	return r.options.ResolveWithTrace(path)
}

func (r *Resolver) ResolveString(path string) (string, opts.Trace, error) {
	value, trace, err := r.Resolve(path)
	if err != nil {
		return "", trace, err
	}
	str, ok := value.(string)
	if !ok {
		return "", trace, fmt.Errorf("settings: path %s is not a string", path)
	}
	return str, trace, nil
}

// Schema exports the schema of the merged settings.
func (r *Resolver) Schema() (opts.SchemaDocument, error) {
	if r == nil || r.options == nil {
		return opts.SchemaDocument{}, fmt.Errorf("settings: resolver not initialised")
	}
	return r.options.Schema()
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	return layering.Clone(src)
}
