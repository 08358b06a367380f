package realtime

import (
	gojwt "github.com/golang-jwt/jwt/v5"
)

// StreamAuth carries the transport-level credentials for one channel.
// Verification of the session token is the server's job; the engine only
// forwards it and inspects claims for gating.
type StreamAuth struct {
	SessionToken string
	InstanceId   Id
}

type SessionClaims struct {
	UserId   Id
	Username string
	Scopes   []string
}

func ParseSessionClaimsUnverified(token string) (*SessionClaims, error) {
	parser := gojwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, gojwt.MapClaims{})
	if err != nil {
		return nil, err
	}

	claims := parsed.Claims.(gojwt.MapClaims)

	sessionClaims := &SessionClaims{}

	if userIdStr, ok := claims["user_id"].(string); ok {
		if userId, err := ParseId(userIdStr); err == nil {
			sessionClaims.UserId = userId
		}
	}
	if username, ok := claims["username"].(string); ok {
		sessionClaims.Username = username
	}
	if scopes, ok := claims["scopes"].([]any); ok {
		for _, scope := range scopes {
			if scopeStr, ok := scope.(string); ok {
				sessionClaims.Scopes = append(sessionClaims.Scopes, scopeStr)
			}
		}
	}

	return sessionClaims, nil
}

func (self *SessionClaims) HasScope(scope string) bool {
	for _, s := range self.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// PrincipalGate builds a HasQualifyingPrincipal accessor from a session
// token. Qualifying means the token names a user identity, mirroring the
// server policy of closing the stream for anonymous sessions.
func PrincipalGate(token string) func() bool {
	claims, err := ParseSessionClaimsUnverified(token)
	qualified := err == nil && claims.UserId != Id{}
	return func() bool {
		return qualified
	}
}
