package telephony

import (
	"context"
	"errors"

	"missedcall/internal/gatewaycreds"
	"missedcall/internal/tenant"
	"missedcall/pkg/utils"
)

// PlatformCredentials yields the shared platform account.
type PlatformCredentials interface {
	Get(ctx context.Context) (gatewaycreds.Credentials, error)
}

// AccountDirectory finds the tenant a webhook belongs to.
type AccountDirectory interface {
	FindByGatewayAccount(ctx context.Context, accountSID string) (tenant.Tenant, error)
	FindByPhoneNumber(ctx context.Context, phone string) (tenant.Tenant, error)
}

// WebhookTokens returns the tokens a webhook may be signed with: the platform
// token, plus the owning tenant's token when the tenant runs its own account.
// The tenant is matched on AccountSid, then on the dialed number.
func WebhookTokens(platform PlatformCredentials, tenants AccountDirectory) AuthTokenSource {
	return func(ctx context.Context, params map[string]string) ([]string, error) {
		var tokens []string

		creds, platformErr := platform.Get(ctx)
		if platformErr == nil && creds.AuthToken != "" {
			tokens = append(tokens, creds.AuthToken)
		}

		t, err := owningTenant(ctx, tenants, params)
		switch {
		case err == nil:
			if t.HasOwnGatewayCredentials() {
				tokens = append(tokens, t.TwilioAuthToken)
			}
		case !errors.Is(err, tenant.ErrNotFound):
			return nil, err
		}

		if len(tokens) == 0 {
			if platformErr != nil {
				return nil, platformErr
			}
			return nil, gatewaycreds.ErrNotConfigured
		}
		return tokens, nil
	}
}

func owningTenant(ctx context.Context, tenants AccountDirectory, params map[string]string) (tenant.Tenant, error) {
	if sid := params["AccountSid"]; sid != "" {
		t, err := tenants.FindByGatewayAccount(ctx, sid)
		if !errors.Is(err, tenant.ErrNotFound) {
			return t, err
		}
	}
	to, err := utils.NormalizePhone(params["To"])
	if err != nil {
		return tenant.Tenant{}, tenant.ErrNotFound
	}
	return tenants.FindByPhoneNumber(ctx, to)
}
