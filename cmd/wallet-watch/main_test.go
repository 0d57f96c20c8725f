package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/wallet-watch/internal/config"
	"github.com/kelsos/wallet-watch/internal/models"
	"github.com/kelsos/wallet-watch/internal/pairing"
	"github.com/kelsos/wallet-watch/internal/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestParamsSetAndShow(t *testing.T) {
	dataDir := t.TempDir()

	out, err := execute(t, "--data-dir", dataDir, "params", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No data found")

	out, err = execute(t, "--data-dir", dataDir, "params", "set",
		"--address", "addr1, addr2", "--invested", "1000", "--currency", "usd", "--dark")
	require.NoError(t, err)
	assert.Contains(t, out, "2 address(es)")

	store, err := storage.NewFileStore(dataDir)
	require.NoError(t, err)
	stored := storage.GetStoredParams(store)
	require.NotNil(t, stored.BitcoinParams)
	assert.Equal(t, models.WalletParams{
		Address:        []string{"addr1", "addr2"},
		InvestedAmount: 1000,
		Currency:       "USD",
		DarkMode:       true,
	}, *stored.BitcoinParams)

	out, err = execute(t, "--data-dir", dataDir, "params", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "addr1, addr2")
	assert.Contains(t, out, "1000.00 USD")
}

func TestParamsSetRejectsEmptyAddressList(t *testing.T) {
	_, err := execute(t, "--data-dir", t.TempDir(), "params", "set", "--address", " , ")
	assert.ErrorIs(t, err, models.ErrNoAddresses)
}

func TestShowWithoutNetwork(t *testing.T) {
	dataDir := t.TempDir()

	out, err := execute(t, "--data-dir", dataDir, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No data found")

	store, err := storage.NewFileStore(dataDir)
	require.NoError(t, err)
	require.True(t, storage.StoreData(store, models.StoredData{BitcoinData: &models.BitcoinData{
		BitcoinPrice: 50000, BitcoinBalance: 10000, BitcoinProfit: 9000,
	}}))

	out, err = execute(t, "--data-dir", dataDir, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "50000.00")
	assert.Contains(t, out, "9000.00")
}

func TestRefreshWithoutParams(t *testing.T) {
	_, err := execute(t, "--data-dir", t.TempDir(), "refresh")
	assert.Error(t, err)
}

func TestBackupCommand(t *testing.T) {
	dataDir := t.TempDir()
	backupDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, storage.ParamsKey+".json"), []byte(`{}`), 0600))

	out, err := execute(t, "--data-dir", dataDir, "backup", "--backup-dir", backupDir)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(backupDir, "wallet-watch_backup_*.zip"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, out, matches[0])
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(options{dataDir: "/tmp/ww", role: config.RoleCompanion})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ww", cfg.DataDir)
	assert.Equal(t, config.RoleCompanion, cfg.Role)
	assert.Nil(t, newSender(cfg))

	_, err = loadConfig(options{role: "watch"})
	assert.Error(t, err)
}

func TestNewSenderNeedsPairURL(t *testing.T) {
	cfg := config.NewConfig()
	assert.Nil(t, newSender(cfg))

	cfg.PairURL = "ws://127.0.0.1:59011/pair"
	assert.NotNil(t, newSender(cfg))
}

type fakeUI struct {
	mu        sync.Mutex
	synced    []models.StoredParams
	refreshes int
	logs      []string
}

func (f *fakeUI) ParamsSynced(doc models.StoredParams) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synced = append(f.synced, doc)
}

func (f *fakeUI) RequestRefresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
}

func (f *fakeUI) AddLog(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, message)
}

func (f *fakeUI) snapshot() ([]models.StoredParams, int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.StoredParams(nil), f.synced...), f.refreshes, append([]string(nil), f.logs...)
}

func TestStartCompanionRefreshesOnSyncedParams(t *testing.T) {
	a, err := newApp(options{dataDir: t.TempDir(), role: config.RoleCompanion})
	require.NoError(t, err)
	a.cfg.PairListenAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ui := &fakeUI{}
	server := pairing.NewWSServer()
	companion := startCompanion(ctx, a, server, ui)
	defer companion.Close()

	httpServer := httptest.NewServer(server)
	defer httpServer.Close()

	doc := models.StoredParams{BitcoinParams: &models.WalletParams{Address: []string{"addr1"}, Currency: "USD"}}
	sender := pairing.NewWSSender(strings.Replace(httpServer.URL, "http://", "ws://", 1)+pairing.PairPath, 1, time.Millisecond)
	require.NoError(t, sender.Deliver(ctx, doc))

	synced, refreshes, _ := ui.snapshot()
	assert.Equal(t, []models.StoredParams{doc}, synced)
	assert.Equal(t, 1, refreshes)
	assert.Equal(t, doc, storage.GetStoredParams(a.store))
}

func TestStartCompanionLogsListenFailure(t *testing.T) {
	a, err := newApp(options{dataDir: t.TempDir(), role: config.RoleCompanion})
	require.NoError(t, err)
	a.cfg.PairListenAddr = "127.0.0.1:-1"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ui := &fakeUI{}
	companion := startCompanion(ctx, a, pairing.NewWSServer(), ui)
	defer companion.Close()

	require.Eventually(t, func() bool {
		_, _, logs := ui.snapshot()
		return len(logs) == 1
	}, 5*time.Second, 10*time.Millisecond)

	_, _, logs := ui.snapshot()
	assert.Contains(t, logs[0], "Pairing unavailable")
}
