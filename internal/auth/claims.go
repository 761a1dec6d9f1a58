package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// AgentID identifies the console user (every console identity is an agent
// record, supervisors included). Role decides which console surfaces and
// event feeds the token unlocks.
type Claims struct {
	jwt.RegisteredClaims

	AgentID   string    `json:"agent_id"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}
