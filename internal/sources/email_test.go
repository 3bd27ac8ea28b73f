package sources

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	mx  map[string][]*net.MX
	err error
}

func (f *fakeResolver) LookupMX(_ context.Context, domain string) ([]*net.MX, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.mx[domain], nil
}

func TestEmailVerifyDeliverable(t *testing.T) {
	resolver := &fakeResolver{mx: map[string][]*net.MX{
		"example.com": {{Host: "mx1.example.com", Pref: 10}},
	}}
	adapter := NewEmail(resolver, Options{})

	item := adapter.Verify(context.Background(), Target{Value: "Jane.Doe@example.com"})

	require.NotNil(t, item.Email)
	assert.True(t, item.Found)
	assert.True(t, item.Email.SyntaxValid)
	assert.True(t, item.Email.MXFound)
	assert.False(t, item.Email.Disposable)
	assert.False(t, item.Email.RoleAccount)
	assert.Equal(t, "jane.doe@example.com", item.Email.Normalized)
	assert.Equal(t, "example.com", item.Email.Domain)
}

func TestEmailVerifyBadSyntax(t *testing.T) {
	adapter := NewEmail(&fakeResolver{}, Options{})

	item := adapter.Verify(context.Background(), Target{Value: "not-an-email"})

	require.NotNil(t, item.Email)
	assert.False(t, item.Found)
	assert.False(t, item.Email.SyntaxValid)
	assert.Empty(t, item.Err, "bad syntax is a negative result, not a failure")
}

func TestEmailVerifyNoMXRecords(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("no such host")}
	adapter := NewEmail(resolver, Options{})

	item := adapter.Verify(context.Background(), Target{Value: "jane@nonexistent.example"})

	require.NotNil(t, item.Email)
	assert.False(t, item.Found)
	assert.True(t, item.Email.SyntaxValid)
	assert.False(t, item.Email.MXFound)
	assert.Empty(t, item.Err, "NXDOMAIN means undeliverable, not adapter failure")
}

func TestEmailVerifyDisposableDomain(t *testing.T) {
	resolver := &fakeResolver{mx: map[string][]*net.MX{
		"mailinator.com": {{Host: "mx.mailinator.com", Pref: 10}},
	}}
	adapter := NewEmail(resolver, Options{})

	item := adapter.Verify(context.Background(), Target{Value: "jane@mailinator.com"})

	require.NotNil(t, item.Email)
	assert.True(t, item.Email.Disposable)
	assert.False(t, item.Found, "disposable domains never verify")
}

func TestEmailVerifyRoleAccount(t *testing.T) {
	resolver := &fakeResolver{mx: map[string][]*net.MX{
		"example.com": {{Host: "mx1.example.com", Pref: 10}},
	}}
	adapter := NewEmail(resolver, Options{})

	item := adapter.Verify(context.Background(), Target{Value: "hr@example.com"})

	require.NotNil(t, item.Email)
	assert.True(t, item.Email.RoleAccount)
	assert.True(t, item.Found, "role accounts still deliver; the penalty is scoring's job")
}
