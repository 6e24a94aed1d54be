package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "splitledger", cmd.Use)
	assert.Contains(t, cmd.Long, "--config")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"serve", "migrate", "reconcile"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "command %s should exist", name)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestFlags(t *testing.T) {
	cmd := NewRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	require.NotNil(t, serveCmd.Flags().Lookup("addr"))

	reconcileCmd, _, err := cmd.Find([]string{"reconcile"})
	require.NoError(t, err)
	groupFlag := reconcileCmd.Flags().Lookup("group")
	require.NotNil(t, groupFlag)
	assert.Equal(t, "g", groupFlag.Shorthand)
	repairFlag := reconcileCmd.Flags().Lookup("repair")
	require.NotNil(t, repairFlag)
	assert.Equal(t, "false", repairFlag.DefValue)
}

// useTempDB points the configuration at a fresh SQLite file.
func useTempDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", path)
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateCommand(t *testing.T) {
	useTempDB(t)
	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite schema at version")
}

func TestServeCommand_RequiresJWTSecret(t *testing.T) {
	useTempDB(t)
	t.Setenv("JWT_SECRET", "short")
	_, err := run(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestReconcileCommand(t *testing.T) {
	path := useTempDB(t)
	groupID := seedDriftedGroup(t, path)

	out, err := run(t, "reconcile")
	require.ErrorIs(t, err, ErrDrift)
	assert.Contains(t, out, "group "+groupID+": drift")
	assert.Contains(t, out, "stored -10.00, derived -40.00")

	out, err = run(t, "reconcile", "--group", groupID, "--repair")
	require.NoError(t, err)
	assert.Contains(t, out, "repaired")

	out, err = run(t, "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "group "+groupID+": clean")
}

// seedDriftedGroup creates a group with one 80.00 expense split equally
// between two members, then corrupts the debtor's stored balance.
func seedDriftedGroup(t *testing.T, path string) string {
	t.Helper()
	ctx := context.Background()
	store, err := sqlstore.OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	user := models.NewUser("alice@example.com", "Alice", "hash")
	require.NoError(t, store.CreateUser(ctx, user))

	l := ledger.New(store)
	g, err := l.CreateGroup(ctx, user.ID, "Flat", "", "")
	require.NoError(t, err)
	dan, err := l.AddMember(ctx, g.ID, user.ID, "Dan", "", "555-0100")
	require.NoError(t, err)
	_, err = l.AddGroupExpense(ctx, ledger.NewExpense{
		GroupID:     g.ID,
		PaidByID:    g.Members[0].ID,
		Amount:      decimal.NewFromInt(80),
		Description: "Tickets",
	})
	require.NoError(t, err)

	require.NoError(t, store.UpdateMemberBalance(ctx, dan.ID, decimal.NewFromInt(-10)))
	return g.ID
}
