package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/wardenbot/pkg/ticketing"
)

// mapError converts a discord REST error into the ticketing error it stands for. The original error stays in the
// chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	restErr := new(discordgo.RESTError)
	if !errors.As(err, &restErr) {
		return err
	}

	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeCannotSendMessagesToThisUser:
			return fmt.Errorf("%w: %w", ticketing.ErrDeliveryRefused, err)
		case discordgo.ErrCodeUnknownChannel,
			discordgo.ErrCodeUnknownMember,
			discordgo.ErrCodeUnknownRole,
			discordgo.ErrCodeUnknownUser:
			return fmt.Errorf("%w: %w", ticketing.ErrNotFound, err)
		case discordgo.ErrCodeMissingAccess,
			discordgo.ErrCodeMissingPermissions:
			return fmt.Errorf("%w: %w", ticketing.ErrForbidden, err)
		}
	}

	// General is returned with a 404 when the entity does not exist.
	if restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", ticketing.ErrNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %w", ticketing.ErrForbidden, err)
		}
	}

	return err
}
