package model

// TokenClaims holds the fields the auth middleware extracts from a JWT.
type TokenClaims struct {
	UserID string
	Role   string
	Type   string
	Exp    int64
}
