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

import "context"

// Provider is the interface every vendor adapter implements (§4.A). All
// capability variants — unary-only, streaming, vision — satisfy this same
// interface; StreamingProvider is an optional extension.
type Provider interface {
	// Name is the adapter's configured model id, matching a ModelConfig.ID.
	Name() string

	// Type identifies the wire protocol this adapter speaks.
	Type() ProviderType

	// Complete issues a single, non-streaming completion request.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Test issues a minimal (≈10 token) completion as a latency probe.
	Test(ctx context.Context) (*HealthCheckResult, error)

	// Capabilities lists the features this adapter's configured model
	// supports.
	Capabilities() []Capability

	// EstimateCost applies the adapter's configured per-token pricing.
	EstimateCost(promptTokens, completionTokens int) float64
}

// StreamingProvider is implemented by adapters that support incremental
// delivery (§4.A "stream(messages, opts) -> AsyncStream<Chunk>").
type StreamingProvider interface {
	Provider
	CompleteStream(ctx context.Context, req CompletionRequest, handler func(StreamChunk) error) error
}

// SupportsStreaming reports whether p also implements StreamingProvider.
func SupportsStreaming(p Provider) bool {
	_, ok := p.(StreamingProvider)
	return ok
}
