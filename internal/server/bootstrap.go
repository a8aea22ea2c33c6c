package server

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/dukerupert/mileswise/internal/handler"
)

// EnsureAdmin creates the configured admin account if it does not exist yet.
// With no password configured a random one is generated and logged once.
func (s *Server) EnsureAdmin() error {
	existing, err := s.adminStore.GetByEmail(s.cfg.Admin.Email)
	if err != nil {
		return fmt.Errorf("lookup admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	password := s.cfg.Admin.Password
	generated := password == ""
	if generated {
		buf := make([]byte, 12)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("generate admin password: %w", err)
		}
		password = base64.RawURLEncoding.EncodeToString(buf)
	}

	hash, err := handler.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin, err := s.adminStore.Create(s.cfg.Admin.Email, s.cfg.Admin.Name, hash)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	if generated {
		s.logger.Warn("created admin with generated password; set admin.password to choose one",
			"email", admin.Email, "password", password)
	} else {
		s.logger.Info("created admin", "email", admin.Email)
	}
	return nil
}
