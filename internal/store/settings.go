package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/erazemk/renova/internal/model"
)

// Setting keys.
const (
	SettingOrgName        = "org_name"
	SettingAppLogo        = "app_logo"
	SettingLandingBgColor = "landing_bg_color"
	SettingLandingBgImage = "landing_bg_image"
	SettingJWTSecret      = "jwt_secret"
)

// GetSetting returns a scalar setting, or "" if it was never set.
func GetSetting(ctx context.Context, db DBTX, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a scalar setting.
func SetSetting(ctx context.Context, db DBTX, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// GetSettings loads the branding settings. Missing keys are empty.
func GetSettings(ctx context.Context, db DBTX) (model.Settings, error) {
	var s model.Settings
	fields := []struct {
		key string
		dst *string
	}{
		{SettingOrgName, &s.OrgName},
		{SettingAppLogo, &s.AppLogo},
		{SettingLandingBgColor, &s.LandingBgColor},
		{SettingLandingBgImage, &s.LandingBgImage},
	}
	for _, f := range fields {
		v, err := GetSetting(ctx, db, f.key)
		if err != nil {
			return model.Settings{}, err
		}
		*f.dst = v
	}
	return s, nil
}

// SaveSettings stores all branding settings in one transaction.
func SaveSettings(ctx context.Context, db *sql.DB, s model.Settings) error {
	return withTx(ctx, db, func(ctx context.Context, tx DBTX) error {
		values := map[string]string{
			SettingOrgName:        s.OrgName,
			SettingAppLogo:        s.AppLogo,
			SettingLandingBgColor: s.LandingBgColor,
			SettingLandingBgImage: s.LandingBgImage,
		}
		for key, value := range values {
			if err := SetSetting(ctx, tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetJWTSecret retrieves the JWT secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetJWTSecret(ctx context.Context, db DBTX) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		SettingJWTSecret, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	secret, err := GetSetting(ctx, db, SettingJWTSecret)
	if err != nil {
		return "", err
	}
	return secret, nil
}
