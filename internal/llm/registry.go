// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llm

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the gateway's configured models and their adapters. It is
// safe for concurrent use: readers may proceed concurrently with each
// other; mutation (Add/Remove/SetEnabled) takes the write lock so a reader
// that snapshots enabled models never observes a partial update (§4.C
// concurrency note, §5 "writer-exclusive discipline").
type Registry struct {
	mu       sync.RWMutex
	models   map[string]ModelConfig
	adapters map[string]Provider
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		models:   make(map[string]ModelConfig),
		adapters: make(map[string]Provider),
	}
}

// Add registers a model and its adapter, replacing any existing entry with
// the same id.
func (r *Registry) Add(cfg ModelConfig, adapter Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[cfg.ID] = cfg
	r.adapters[cfg.ID] = adapter
}

// Remove deletes a model and its adapter.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.models, id)
	delete(r.adapters, id)
}

// SetEnabled flips a model's enabled flag.
func (r *Registry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.models[id]
	if !ok {
		return fmt.Errorf("llm: unknown model %q", id)
	}
	cfg.Enabled = enabled
	r.models[id] = cfg
	return nil
}

// Get returns a model's config and adapter.
func (r *Registry) Get(id string) (ModelConfig, Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.models[id]
	if !ok {
		return ModelConfig{}, nil, false
	}
	return cfg, r.adapters[id], true
}

// candidate pairs a ModelConfig with its adapter for router/gateway use.
type candidate struct {
	Config  ModelConfig
	Adapter Provider
}

// EnabledModels returns every enabled model and its adapter, sorted by
// Priority ascending (lower = preferred, §3 "ModelConfig" invariant), with
// ties broken by id for determinism. The returned snapshot is safe to use
// without holding the registry lock.
func (r *Registry) EnabledModels() []candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]candidate, 0, len(r.models))
	for id, cfg := range r.models {
		if !cfg.Enabled {
			continue
		}
		out = append(out, candidate{Config: cfg, Adapter: r.adapters[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Config.Priority != out[j].Config.Priority {
			return out[i].Config.Priority < out[j].Config.Priority
		}
		return out[i].Config.ID < out[j].Config.ID
	})
	return out
}

// All returns every configured model, enabled or not.
func (r *Registry) All() []ModelConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ModelConfig, 0, len(r.models))
	for _, cfg := range r.models {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
