package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minv/config"
	"github.com/otherjamesbrown/minv/pkg/billing"
	"github.com/otherjamesbrown/minv/pkg/logging"
)

func newCustomersTestDeps(store *fakeStore) (*CustomersCommandDeps, *bytes.Buffer) {
	out := &bytes.Buffer{}
	deps := &CustomersCommandDeps{
		LoadConfig: func() (*config.Config, error) { return testRunConfig(), nil },
		OpenStore: func(logging.Logger) (billing.Store, error) {
			return store, nil
		},
		Logger: logging.NewNopLogger(),
		Out:    out,
	}
	return deps, out
}

func TestCustomersList(t *testing.T) {
	store := &fakeStore{customers: []billing.Customer{
		acmeJane(),
		{ID: "cus_beta", Email: "bob@beta.io", Name: "Beta LLC"},
	}}
	deps, out := newCustomersTestDeps(store)

	err := execute(t, NewCustomersCommand(deps), "list")
	require.NoError(t, err)

	assert.Contains(t, out.String(), "jane@acme.com")
	assert.Contains(t, out.String(), "$200.00/h")
	// Beta has no rate attribute and falls back to the configured default.
	assert.Contains(t, out.String(), "$150.00/h (default)")
}

func TestCustomersListEmpty(t *testing.T) {
	deps, out := newCustomersTestDeps(&fakeStore{})

	err := execute(t, NewCustomersCommand(deps), "list")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No customers found")
}

func TestCustomersSetRate(t *testing.T) {
	store := &fakeStore{customers: []billing.Customer{acmeJane()}}
	deps, out := newCustomersTestDeps(store)

	err := execute(t, NewCustomersCommand(deps), "set-rate", "cus_acme", "$275")
	require.NoError(t, err)

	assert.Equal(t, 275.0, store.rates["cus_acme"])
	assert.Contains(t, out.String(), "$275.00/h")
}

func TestCustomersSetRateRejectsBadInput(t *testing.T) {
	store := &fakeStore{}
	deps, _ := newCustomersTestDeps(store)

	tests := []struct {
		name string
		rate string
	}{
		{"not a number", "abc"},
		{"zero", "0"},
		{"above cap", "10001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewCustomersCommand(deps)
			cmd.SetArgs([]string{"set-rate", "cus_acme", tt.rate})
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			assert.Error(t, cmd.Execute())
			assert.Empty(t, store.rates)
		})
	}
}

func TestNewCustomersCommand_WithNilDeps(t *testing.T) {
	cmd := NewCustomersCommand(nil)
	assert.NotNil(t, cmd)
	assert.Equal(t, "customers", cmd.Use)

	_, _, err := cmd.Find([]string{"list"})
	assert.NoError(t, err)
	_, _, err = cmd.Find([]string{"set-rate"})
	assert.NoError(t, err)
}
