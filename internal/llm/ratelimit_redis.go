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
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimiter enforces a per-model request budget using a Redis sorted-set
// sliding window, so the limit holds across every gateway process sharing
// the same Redis instance rather than per-process.
type RateLimiter struct {
	client *redis.Client
	window time.Duration
}

// NewRateLimiter wraps an already-connected redis.Client. window is the
// sliding window size (e.g. one minute for a requests-per-minute budget).
func NewRateLimiter(client *redis.Client, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, window: window}
}

// Allow records a request for modelID and reports whether it falls within
// limit requests per window, using the same remove-expired/count/add/expire
// pipeline shape as a sliding-window limiter (adapted from the teacher's
// agent-side Redis rate limiter).
func (r *RateLimiter) Allow(ctx context.Context, modelID string, limit int) (bool, error) {
	key := "llm:ratelimit:" + modelID
	now := time.Now()

	pipe := r.client.Pipeline()
	minScore := now.Add(-r.window).UnixNano()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", minScore))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	pipe.Expire(ctx, key, 2*r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("llm: rate limit check for %q: %w", modelID, err)
	}

	count, err := countCmd.Result()
	if err != nil {
		return false, fmt.Errorf("llm: rate limit count for %q: %w", modelID, err)
	}
	return count < int64(limit), nil
}

// Reset clears modelID's window, used by tests and admin tooling.
func (r *RateLimiter) Reset(ctx context.Context, modelID string) error {
	return r.client.Del(ctx, "llm:ratelimit:"+modelID).Err()
}
