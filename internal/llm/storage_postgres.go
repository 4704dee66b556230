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
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStorage persists ModelConfig rows so a Registry can be rebuilt
// across restarts without re-entering credentials.
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage wraps an already-open *sql.DB (opened with the
// "postgres" driver registered by github.com/lib/pq).
func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// SaveModel upserts a model configuration keyed by id.
func (s *PostgresStorage) SaveModel(ctx context.Context, cfg ModelConfig) error {
	capsJSON, err := json.Marshal(cfg.Capabilities)
	if err != nil {
		return fmt.Errorf("llm: marshal capabilities: %w", err)
	}

	query := `
		INSERT INTO gateway_models (
			id, provider, model_name, base_url, api_key, enabled, priority,
			cost_per_1m_input, cost_per_1m_output, capabilities
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			provider = EXCLUDED.provider,
			model_name = EXCLUDED.model_name,
			base_url = EXCLUDED.base_url,
			api_key = EXCLUDED.api_key,
			enabled = EXCLUDED.enabled,
			priority = EXCLUDED.priority,
			cost_per_1m_input = EXCLUDED.cost_per_1m_input,
			cost_per_1m_output = EXCLUDED.cost_per_1m_output,
			capabilities = EXCLUDED.capabilities,
			updated_at = NOW()
	`
	_, err = s.db.ExecContext(ctx, query,
		cfg.ID, cfg.Provider, cfg.ModelName, cfg.BaseURL, cfg.APIKey, cfg.Enabled,
		cfg.Priority, cfg.CostPer1MInput, cfg.CostPer1MOutput, capsJSON,
	)
	if err != nil {
		return fmt.Errorf("llm: save model %q: %w", cfg.ID, err)
	}
	return nil
}

// GetModel retrieves a single model configuration by id.
func (s *PostgresStorage) GetModel(ctx context.Context, id string) (ModelConfig, error) {
	query := `
		SELECT id, provider, model_name, base_url, api_key, enabled, priority,
		       cost_per_1m_input, cost_per_1m_output, capabilities
		FROM gateway_models WHERE id = $1
	`
	var cfg ModelConfig
	var capsJSON []byte
	var baseURL, apiKey sql.NullString

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&cfg.ID, &cfg.Provider, &cfg.ModelName, &baseURL, &apiKey, &cfg.Enabled,
		&cfg.Priority, &cfg.CostPer1MInput, &cfg.CostPer1MOutput, &capsJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ModelConfig{}, fmt.Errorf("llm: model %q not found", id)
	}
	if err != nil {
		return ModelConfig{}, fmt.Errorf("llm: get model %q: %w", id, err)
	}
	cfg.BaseURL = baseURL.String
	cfg.APIKey = apiKey.String
	if len(capsJSON) > 0 {
		if err := json.Unmarshal(capsJSON, &cfg.Capabilities); err != nil {
			return ModelConfig{}, fmt.Errorf("llm: unmarshal capabilities for %q: %w", id, err)
		}
	}
	return cfg, nil
}

// ListModels returns every persisted model configuration, enabled or not.
func (s *PostgresStorage) ListModels(ctx context.Context) ([]ModelConfig, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, model_name, base_url, api_key, enabled, priority,
		       cost_per_1m_input, cost_per_1m_output, capabilities
		FROM gateway_models ORDER BY priority ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("llm: list models: %w", err)
	}
	defer rows.Close()

	var out []ModelConfig
	for rows.Next() {
		var cfg ModelConfig
		var capsJSON []byte
		var baseURL, apiKey sql.NullString
		if err := rows.Scan(
			&cfg.ID, &cfg.Provider, &cfg.ModelName, &baseURL, &apiKey, &cfg.Enabled,
			&cfg.Priority, &cfg.CostPer1MInput, &cfg.CostPer1MOutput, &capsJSON,
		); err != nil {
			return nil, fmt.Errorf("llm: scan model row: %w", err)
		}
		cfg.BaseURL = baseURL.String
		cfg.APIKey = apiKey.String
		if len(capsJSON) > 0 {
			if err := json.Unmarshal(capsJSON, &cfg.Capabilities); err != nil {
				return nil, fmt.Errorf("llm: unmarshal capabilities for %q: %w", cfg.ID, err)
			}
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// DeleteModel removes a persisted model configuration.
func (s *PostgresStorage) DeleteModel(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM gateway_models WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("llm: delete model %q: %w", id, err)
	}
	return nil
}
