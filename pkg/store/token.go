package store

import "context"

type tokenRecord struct {
	Token string `json:"token"`
}

// SaveToken persists the session token.
func (s *Store) SaveToken(ctx context.Context, token string) error {
	return s.WriteAll(ctx, AuthToken, tokenRecord{Token: token})
}

// LoadToken returns the persisted token, if any.
func (s *Store) LoadToken(ctx context.Context) (string, bool, error) {
	var rec tokenRecord
	ok, err := s.ReadAll(ctx, AuthToken, &rec)
	if err != nil || !ok || rec.Token == "" {
		return "", false, err
	}
	return rec.Token, true, nil
}

// ClearToken removes the persisted token.
func (s *Store) ClearToken(ctx context.Context) error {
	return s.Remove(ctx, AuthToken)
}
