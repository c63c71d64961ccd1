package telephony

import (
	"context"
	"errors"
	"testing"

	"missedcall/internal/gatewaycreds"
	"missedcall/internal/tenant"
)

type staticCreds struct {
	c   gatewaycreds.Credentials
	err error
}

func (s staticCreds) Get(context.Context) (gatewaycreds.Credentials, error) { return s.c, s.err }

func tokenTenants() *tenant.MemoryRepo {
	return tenant.NewMemoryRepo(
		tenant.Tenant{ID: "t1", PhoneNumber: "+15550001111", TwilioAccountSID: "ACtenant", TwilioAuthToken: "tenant-token"},
		tenant.Tenant{ID: "t2", PhoneNumber: "+15550002222"},
	)
}

func TestWebhookTokens(t *testing.T) {
	platform := staticCreds{c: gatewaycreds.Credentials{AccountSID: "ACplatform", AuthToken: "platform-token", FromNumber: "+15550009999"}}
	src := WebhookTokens(platform, tokenTenants())
	ctx := context.Background()

	cases := []struct {
		name   string
		params map[string]string
		want   []string
	}{
		{"tenant account sid", map[string]string{"AccountSid": "ACtenant"}, []string{"platform-token", "tenant-token"}},
		{"tenant number", map[string]string{"To": "+15550001111"}, []string{"platform-token", "tenant-token"}},
		{"platform tenant", map[string]string{"AccountSid": "ACplatform", "To": "+15550002222"}, []string{"platform-token"}},
		{"unknown", map[string]string{"To": "+15550003333"}, []string{"platform-token"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := src(ctx, tc.params)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

func TestWebhookTokens_TenantTokenWithoutPlatform(t *testing.T) {
	src := WebhookTokens(staticCreds{err: gatewaycreds.ErrNotConfigured}, tokenTenants())

	got, err := src(context.Background(), map[string]string{"AccountSid": "ACtenant"})
	if err != nil || len(got) != 1 || got[0] != "tenant-token" {
		t.Fatalf("expected tenant token only, got %v %v", got, err)
	}

	if _, err := src(context.Background(), map[string]string{"To": "+15550002222"}); !errors.Is(err, gatewaycreds.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
