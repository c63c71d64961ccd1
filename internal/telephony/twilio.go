package telephony

import (
	"context"
	"errors"
	"strconv"

	"missedcall/internal/gatewaycreds"
	"missedcall/internal/messaging"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSMSGateway submits messages through the Twilio REST API.
// A client is built per send because credentials differ per tenant.
type TwilioSMSGateway struct {
	// newClient is swapped in tests.
	newClient func(creds gatewaycreds.Credentials) messageCreator
}

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

func NewTwilioSMSGateway() *TwilioSMSGateway {
	return &TwilioSMSGateway{newClient: func(creds gatewaycreds.Credentials) messageCreator {
		rc := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: creds.AccountSID,
			Password: creds.AuthToken,
		})
		return rc.Api
	}}
}

func (g *TwilioSMSGateway) SendSMS(ctx context.Context, creds gatewaycreds.Credentials, msg messaging.OutboundSMS) (string, error) {
	if creds.AccountSID == "" || creds.AuthToken == "" {
		return "", gatewaycreds.ErrNotConfigured
	}
	if msg.From == "" {
		return "", errors.New("telephony: sender number required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(msg.From)
	params.SetBody(msg.Body)
	if msg.StatusCallback != "" {
		params.SetStatusCallback(msg.StatusCallback)
	}

	resp, err := g.newClient(creds).CreateMessage(params)
	if err != nil {
		return "", gatewayError(err)
	}
	if resp == nil || resp.Sid == nil || *resp.Sid == "" {
		return "", &messaging.GatewayError{Message: "gateway accepted message without sid"}
	}
	return *resp.Sid, nil
}

// gatewayError keeps the Twilio error code for the SmsLog row.
func gatewayError(err error) error {
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		return &messaging.GatewayError{Code: strconv.Itoa(restErr.Code), Message: restErr.Message}
	}
	return &messaging.GatewayError{Message: err.Error()}
}
