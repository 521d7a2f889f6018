package googletasks

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"lijstje/internal/gateway"
)

// wrapError maps API errors onto the gateway sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	// Check for timeout
	if strings.Contains(err.Error(), "context deadline exceeded") {
		return fmt.Errorf("request timed out: %w", err)
	}

	// Refresh token expired or revoked
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: token expired or revoked (run: lijstje login)", gateway.ErrNoSession)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", gateway.ErrNoSession, apiErr.Message)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %s", gateway.ErrForbidden, apiErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", gateway.ErrNotFound, apiErr.Message)
		case http.StatusConflict:
			return fmt.Errorf("%w: %s", gateway.ErrConflict, apiErr.Message)
		}
	}
	return err
}
