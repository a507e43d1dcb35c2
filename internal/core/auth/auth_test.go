package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	testKeyID  = "0123456789abcdef0123456789abcdef"
	testSecret = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
)

var testKey = FormatAPIKey(testKeyID, testSecret)

func TestParseAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", testKey, false},
		{"wrong prefix", "tk-v1-" + testKeyID + "-" + testSecret, true},
		{"wrong version", "sv-v2-" + testKeyID + "-" + testSecret, true},
		{"short id", "sv-v1-0123-" + testSecret, true},
		{"short secret", "sv-v1-" + testKeyID + "-0011", true},
		{"uppercase hex", "sv-v1-" + strings.ToUpper(testKeyID) + "-" + testSecret, true},
		{"extra part", testKey + "-x", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyID, secret, err := ParseAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKeyFormat) {
					t.Errorf("error = %v, want ErrInvalidKeyFormat", err)
				}
				return
			}
			if keyID != testKeyID || secret != testSecret {
				t.Errorf("ParseAPIKey() = %s, %s", keyID, secret)
			}
		})
	}
}

func TestGenerateAPIKey(t *testing.T) {
	first, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}
	second, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}
	if first == second {
		t.Error("GenerateAPIKey() returned the same key twice")
	}
	if _, _, err := ParseAPIKey(first); err != nil {
		t.Errorf("generated key %q does not parse: %v", first, err)
	}
}

func TestNewAuthenticator(t *testing.T) {
	if _, err := NewAuthenticator(nil); !errors.Is(err, ErrNoKeys) {
		t.Errorf("NewAuthenticator(nil) error = %v, want ErrNoKeys", err)
	}
	if _, err := NewAuthenticator([]string{"garbage"}); !errors.Is(err, ErrInvalidKeyFormat) {
		t.Errorf("NewAuthenticator(garbage) error = %v, want ErrInvalidKeyFormat", err)
	}

	rotated := FormatAPIKey(testKeyID, strings.Repeat("f", 64))
	if _, err := NewAuthenticator([]string{testKey, rotated}); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("NewAuthenticator(duplicate id) error = %v, want ErrDuplicateKey", err)
	}
}

func TestAuthenticate(t *testing.T) {
	other := FormatAPIKey("fedcba9876543210fedcba9876543210", strings.Repeat("a", 64))
	a, err := NewAuthenticator([]string{testKey, other})
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}

	tests := []struct {
		name    string
		key     string
		wantID  string
		wantErr error
	}{
		{"first key", testKey, testKeyID, nil},
		{"second key", other, "fedcba9876543210fedcba9876543210", nil},
		{"wrong secret", FormatAPIKey(testKeyID, strings.Repeat("0", 64)), "", ErrInvalidKey},
		{"unknown id", FormatAPIKey(strings.Repeat("1", 32), testSecret), "", ErrUnknownKey},
		{"bad format", "sv-v1-nope", "", ErrInvalidKeyFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Authenticate(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.wantID {
				t.Errorf("Authenticate() = %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestUnaryInterceptor(t *testing.T) {
	a, err := NewAuthenticator([]string{testKey})
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}
	interceptor := a.UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/sieve.v1.QueryService/Filter"}

	var seenKeyID string
	handler := func(ctx context.Context, req any) (any, error) {
		seenKeyID = KeyIDFromContext(ctx)
		return "ok", nil
	}

	tests := []struct {
		name     string
		ctx      context.Context
		wantCode codes.Code
	}{
		{"no metadata", context.Background(), codes.Unauthenticated},
		{"no key", metadata.NewIncomingContext(context.Background(), metadata.Pairs("other", "x")), codes.Unauthenticated},
		{"unknown id", metadata.NewIncomingContext(context.Background(),
			metadata.Pairs("x-api-key", FormatAPIKey(strings.Repeat("2", 32), testSecret))), codes.Unauthenticated},
		{"valid", metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-api-key", testKey)), codes.OK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenKeyID = ""
			resp, err := interceptor(tt.ctx, nil, info, handler)
			if got := status.Code(err); got != tt.wantCode {
				t.Fatalf("code = %v, want %v (err %v)", got, tt.wantCode, err)
			}
			if tt.wantCode != codes.OK {
				return
			}
			if resp != "ok" || seenKeyID != testKeyID {
				t.Errorf("handler saw key id %q, resp %v", seenKeyID, resp)
			}
		})
	}
}

func TestUnaryInterceptor_HidesUnknownID(t *testing.T) {
	a, _ := NewAuthenticator([]string{testKey})
	ctx := metadata.NewIncomingContext(context.Background(),
		metadata.Pairs("x-api-key", FormatAPIKey(strings.Repeat("3", 32), testSecret)))

	_, err := a.UnaryInterceptor()(ctx, nil, &grpc.UnaryServerInfo{}, func(context.Context, any) (any, error) {
		t.Fatal("handler called for unknown key")
		return nil, nil
	})
	if msg := status.Convert(err).Message(); msg != ErrInvalidKey.Error() {
		t.Errorf("message = %q, want %q", msg, ErrInvalidKey.Error())
	}
}

func TestKeyIDFromContext_Empty(t *testing.T) {
	if got := KeyIDFromContext(context.Background()); got != "" {
		t.Errorf("KeyIDFromContext() = %q, want empty", got)
	}
}
