package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_TableValues(t *testing.T) {
	table := Default()

	tests := []struct {
		scope   Scope
		limit   int
		window  time.Duration
		keyedBy KeyBy
	}{
		{ScopeLogin, 5, time.Hour, KeyByRemoteAddress},
		{ScopeRegister, 5, time.Hour, KeyByRemoteAddress},
		{ScopeTokenRefresh, 10, time.Minute, KeyByPrincipal},
		{ScopeLogout, 20, time.Minute, KeyByPrincipal},
		{ScopeCurrentUser, 60, time.Minute, KeyByPrincipal},
		{ScopeRead, 100, time.Minute, KeyByPrincipal},
		{ScopeWrite, 20, time.Minute, KeyByPrincipal},
		{ScopeBurst, 100, time.Minute, KeyByPrincipal},
		{ScopeAnonymousDefault, 20, time.Hour, KeyByRemoteAddress},
		{ScopeAuthenticatedDefault, 100, time.Minute, KeyByPrincipal},
	}

	for _, tc := range tests {
		t.Run(string(tc.scope), func(t *testing.T) {
			rule, err := table.RuleFor(tc.scope)
			require.NoError(t, err)
			assert.Equal(t, tc.limit, rule.Limit)
			assert.Equal(t, tc.window, rule.Window)
			assert.Equal(t, tc.keyedBy, rule.KeyedBy)
		})
	}
}

func TestDefault_CoversAllScopes(t *testing.T) {
	table := Default()
	for _, s := range Scopes() {
		_, err := table.RuleFor(s)
		assert.NoError(t, err, "scope %q should have a rule", s)
	}
}

func TestNewTable_MissingScope(t *testing.T) {
	_, err := NewTable(
		Rule{Scope: ScopeLogin, Limit: 5, Window: time.Hour, KeyedBy: KeyByRemoteAddress},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteTable)
}

func TestNewTable_InvalidRules(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"zero limit", Rule{Scope: ScopeLogin, Limit: 0, Window: time.Hour}},
		{"negative limit", Rule{Scope: ScopeLogin, Limit: -1, Window: time.Hour}},
		{"zero window", Rule{Scope: ScopeLogin, Limit: 5, Window: 0}},
		{"negative window", Rule{Scope: ScopeLogin, Limit: 5, Window: -time.Second}},
		{"empty scope", Rule{Limit: 5, Window: time.Hour}},
		{"bad keyed-by", Rule{Scope: ScopeLogin, Limit: 5, Window: time.Hour, KeyedBy: KeyBy(42)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTable(tc.rule)
			assert.Error(t, err)
		})
	}
}

func TestNewTable_UnknownScope(t *testing.T) {
	_, err := NewTable(
		Rule{Scope: "frobnicate", Limit: 5, Window: time.Hour, KeyedBy: KeyByPrincipal},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownScope)
}

func TestNewTable_DuplicateScope(t *testing.T) {
	_, err := NewTable(
		Rule{Scope: ScopeLogin, Limit: 5, Window: time.Hour, KeyedBy: KeyByRemoteAddress},
		Rule{Scope: ScopeLogin, Limit: 10, Window: time.Hour, KeyedBy: KeyByRemoteAddress},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestTable_RuleForUnknown(t *testing.T) {
	table := Default()
	_, err := table.RuleFor("no_such_scope")
	assert.ErrorIs(t, err, ErrUnknownScope)
}

func TestTable_RulesOrdered(t *testing.T) {
	table := Default()
	rules := table.Rules()
	require.Len(t, rules, len(Scopes()))
	for i, s := range Scopes() {
		assert.Equal(t, s, rules[i].Scope)
	}
}

func TestKeyBy_String(t *testing.T) {
	assert.Equal(t, "principal", KeyByPrincipal.String())
	assert.Equal(t, "remote_address", KeyByRemoteAddress.String())
}
