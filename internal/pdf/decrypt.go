package pdf

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrEncrypted is returned for an encrypted PDF that could not be decrypted.
var ErrEncrypted = errors.New("pdf is encrypted")

// IsEncrypted checks if a PDF file is encrypted/password-protected.
func IsEncrypted(filename string) (bool, error) {
	// Page counting fails without the password on encrypted files.
	_, err := api.PageCountFile(filename)
	if err != nil {
		if isEncryptionError(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to check PDF encryption status: %w", err)
	}
	return false, nil
}

func isEncryptionError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypt") ||
		strings.Contains(msg, "password") ||
		strings.Contains(msg, "decrypt")
}

// Decrypt returns a readable path for filename. Unencrypted files are returned
// as-is; encrypted ones are decrypted with password into a temporary file that
// cleanup removes.
func Decrypt(filename, password string) (string, func(), error) {
	noop := func() {}

	encrypted, err := IsEncrypted(filename)
	if err != nil {
		// Let the text reader report structural problems.
		slog.Debug("Encryption check failed", "file", filename, "error", err)
		return filename, noop, nil
	}
	if !encrypted {
		return filename, noop, nil
	}
	if password == "" {
		return "", noop, fmt.Errorf("%w: %s (no password given)", ErrEncrypted, filename)
	}

	tmp, err := os.CreateTemp("", "langid-decrypted-*.pdf")
	if err != nil {
		return "", noop, fmt.Errorf("failed to create temporary file: %w", err)
	}
	_ = tmp.Close()
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password
	if err := api.DecryptFile(filename, tmp.Name(), conf); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("%w: %s: %w", ErrEncrypted, filename, err)
	}
	return tmp.Name(), cleanup, nil
}
