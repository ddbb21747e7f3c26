package database

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tagview/internal/logging"
)

// SessionDuration is the length of time a session remains valid.
const SessionDuration = 7 * 24 * time.Hour // 7 days

// ErrInvalidPassword is returned for a wrong password and, deliberately,
// when no password is set at all.
var ErrInvalidPassword = errors.New("invalid password")

// ErrInvalidSession is returned for unknown, malformed, or expired tokens.
var ErrInvalidSession = errors.New("invalid session")

// HasPassword reports whether a gate password has been configured.
// When false, the HTTP surface is open.
func (d *Database) HasPassword(ctx context.Context) bool {
	hash, err := d.GetSetting(ctx, SettingPasswordHash)
	if err != nil {
		return false
	}
	return hash != ""
}

// SetPassword hashes and stores the gate password, invalidating all
// existing sessions.
func (d *Database) SetPassword(ctx context.Context, password string) error {
	done := observeQuery("set_password")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		err = fmt.Errorf("failed to hash password: %w", err)
		done(err)
		return err
	}

	if err := d.SetSetting(ctx, SettingPasswordHash, string(hash)); err != nil {
		done(err)
		return err
	}

	if err := d.DeleteAllSessions(ctx); err != nil {
		logging.Warn("failed to invalidate sessions: %v", err)
	}

	done(nil)
	return nil
}

// ClearPassword removes the gate password and all sessions, opening the
// HTTP surface.
func (d *Database) ClearPassword(ctx context.Context) error {
	if err := d.DeleteSetting(ctx, SettingPasswordHash); err != nil {
		return err
	}
	return d.DeleteAllSessions(ctx)
}

// ValidatePassword checks the given password against the stored hash.
func (d *Database) ValidatePassword(ctx context.Context, password string) error {
	done := observeQuery("validate_password")

	hash, err := d.GetSetting(ctx, SettingPasswordHash)
	if err != nil || hash == "" {
		done(ErrInvalidPassword)
		return ErrInvalidPassword
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		done(ErrInvalidPassword)
		return ErrInvalidPassword
	}

	done(nil)
	return nil
}

// CreateSession creates a new session and returns it with the unhashed
// token. Only the SHA-256 of the token is stored.
func (d *Database) CreateSession(ctx context.Context) (*Session, error) {
	done := observeQuery("create_session")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Generate random token
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		err = fmt.Errorf("failed to generate token: %w", err)
		done(err)
		return nil, err
	}

	// Hash the token for storage
	hash := sha256.Sum256(tokenBytes)
	tokenHash := hex.EncodeToString(hash[:])
	token := hex.EncodeToString(tokenBytes)

	expiresAt := time.Now().Add(SessionDuration)

	result, err := d.db.ExecContext(ctx,
		"INSERT INTO sessions (token, expires_at) VALUES (?, ?)",
		tokenHash, expiresAt.Unix(),
	)
	if err != nil {
		err = fmt.Errorf("failed to create session: %w", err)
		done(err)
		return nil, err
	}

	id, _ := result.LastInsertId()

	done(nil)
	return &Session{
		ID:        id,
		Token:     token, // Return unhashed token to client
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// ValidateSession checks if a session token is valid and unexpired.
func (d *Database) ValidateSession(ctx context.Context, token string) error {
	done := observeQuery("validate_session")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tokenHash, err := hashToken(token)
	if err != nil {
		done(ErrInvalidSession)
		return ErrInvalidSession
	}

	var expiresAt int64
	err = d.db.QueryRowContext(ctx,
		"SELECT expires_at FROM sessions WHERE token = ?",
		tokenHash,
	).Scan(&expiresAt)
	if err != nil {
		done(ErrInvalidSession)
		return ErrInvalidSession
	}

	if time.Now().Unix() > expiresAt {
		// Clean up expired session in background - don't block validation
		go func() {
			if delErr := d.deleteSessionByHash(tokenHash); delErr != nil {
				logging.Error("failed to delete expired session: %v", delErr)
			}
		}()
		done(ErrInvalidSession)
		return ErrInvalidSession
	}

	done(nil)
	return nil
}

// ExtendSession pushes a session's expiry out to a full SessionDuration
// from now. Used by the auth middleware to keep active users logged in.
func (d *Database) ExtendSession(ctx context.Context, token string) error {
	tokenHash, err := hashToken(token)
	if err != nil {
		return ErrInvalidSession
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		"UPDATE sessions SET expires_at = ? WHERE token = ?",
		time.Now().Add(SessionDuration).Unix(), tokenHash,
	)
	return err
}

// deleteSessionByHash removes a session by its hashed token.
func (d *Database) deleteSessionByHash(tokenHash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", tokenHash)
	return err
}

// DeleteSession removes a session.
func (d *Database) DeleteSession(ctx context.Context, token string) error {
	tokenHash, err := hashToken(token)
	if err != nil {
		return fmt.Errorf("invalid token format: %w", err)
	}
	return d.deleteSessionByHash(tokenHash)
}

// DeleteAllSessions removes all sessions (used when the password changes).
func (d *Database) DeleteAllSessions(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, "DELETE FROM sessions")
	return err
}

// CleanExpiredSessions removes all expired sessions.
func (d *Database) CleanExpiredSessions(ctx context.Context) error {
	done := observeQuery("clean_expired_sessions")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", time.Now().Unix())
	done(err)
	return err
}

// CountActiveSessions returns the number of unexpired sessions.
func (d *Database) CountActiveSessions(ctx context.Context) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE expires_at >= ?",
		time.Now().Unix(),
	).Scan(&count)
	if err != nil {
		return 0
	}
	return count
}

// hashToken converts a client token to its stored hash form.
func hashToken(token string) (string, error) {
	tokenBytes, err := hex.DecodeString(token)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(tokenBytes)
	return hex.EncodeToString(hash[:]), nil
}
