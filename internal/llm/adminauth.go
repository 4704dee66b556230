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
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminTokenClaims identifies an operator session permitted to call the
// gateway's admin surface (the test-all endpoint) over HTTP.
type AdminTokenClaims struct {
	jwt.RegisteredClaims
	Operator string `json:"operator"`
}

// AdminAuthenticator signs and verifies short-lived HS256 admin tokens,
// the same signed-token pattern the teacher uses for service auth.
type AdminAuthenticator struct {
	secret []byte
	ttl    time.Duration
}

// NewAdminAuthenticator builds an authenticator signing with secret and
// issuing tokens valid for ttl.
func NewAdminAuthenticator(secret []byte, ttl time.Duration) *AdminAuthenticator {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &AdminAuthenticator{secret: secret, ttl: ttl}
}

// Issue mints a signed token for operator.
func (a *AdminAuthenticator) Issue(operator string) (string, error) {
	now := time.Now()
	claims := AdminTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		Operator: operator,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("llm: sign admin token: %w", err)
	}
	return signed, nil
}

// Verify validates a token's signature and expiry, returning its claims.
func (a *AdminAuthenticator) Verify(tokenString string) (*AdminTokenClaims, error) {
	claims := &AdminTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("llm: verify admin token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("llm: admin token invalid")
	}
	return claims, nil
}
