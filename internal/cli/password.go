package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/zarlcorp/core/pkg/zcrypto"
	"github.com/zarlcorp/zbook/internal/config"
	"github.com/zarlcorp/zbook/internal/store"
	"golang.org/x/term"
)

// ErrPasswordMismatch is returned when confirmation differs.
var ErrPasswordMismatch = errors.New("passwords do not match")

// ReadPassword prompts for a password on w and reads it without echo.
func ReadPassword(prompt string, w io.Writer) ([]byte, error) {
	fmt.Fprint(w, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return b, nil
}

// ReadNewPassword prompts for a new password with confirmation.
func ReadNewPassword(w io.Writer) ([]byte, error) {
	pass, err := ReadPassword("master password: ", w)
	if err != nil {
		return nil, err
	}
	confirm, err := ReadPassword("confirm password: ", w)
	if err != nil {
		zcrypto.Erase(pass)
		return nil, err
	}
	defer zcrypto.Erase(confirm)

	if !bytes.Equal(pass, confirm) {
		zcrypto.Erase(pass)
		return nil, ErrPasswordMismatch
	}
	return pass, nil
}

// OpenGateway opens the configured persistence backend. The vault prompts
// for its master password on w.
func OpenGateway(ctx context.Context, cfg *config.Config, w io.Writer) (store.Gateway, error) {
	switch cfg.Storage {
	case config.StorageRedis:
		return store.OpenRedis(ctx, cfg.RedisURL)
	case config.StorageVault:
		var pass []byte
		var err error
		if store.IsFirstRun(cfg.DataDir) {
			pass, err = ReadNewPassword(w)
		} else {
			pass, err = ReadPassword("master password: ", w)
		}
		if err != nil {
			return nil, err
		}
		return store.OpenVaultDir(cfg.DataDir, pass)
	}
	return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}
