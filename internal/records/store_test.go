package records

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ziadkadry99/tradebook/internal/backend"
	"github.com/ziadkadry99/tradebook/internal/backend/backendtest"
)

func setup(t *testing.T) (*backendtest.Server, *Store, *observer.ObservedLogs) {
	t.Helper()
	fake := backendtest.NewServer()
	t.Cleanup(fake.Close)
	client, err := backend.New(fake.URL, backendtest.AnonKey)
	if err != nil {
		t.Fatal(err)
	}
	core, logs := observer.New(zapcore.DebugLevel)
	return fake, NewStore(client, zap.New(core)), logs
}

func sampleTrade() Trade {
	return Trade{
		BrokerName: "Fubon",
		Date:       "2024-03-05",
		Side:       "buy",
		Code:       "2330",
		Name:       "TSMC",
		Price:      612.5,
		Lots:       2,
		Shares:     2000,
		CostNoFee:  1225000,
		Fee:        1745.63,
		Tax:        0,
		TotalCost:  1226745.63,
	}
}

func TestLoadUserSettingsCreatesDefaultsOnce(t *testing.T) {
	fake, s, _ := setup(t)
	ctx := context.Background()

	first := s.LoadUserSettings(ctx, "u1")
	if first == nil {
		t.Fatal("expected settings")
	}
	want := DefaultSettings("u1")
	if *first != want {
		t.Errorf("first load = %+v, want %+v", *first, want)
	}

	second := s.LoadUserSettings(ctx, "u1")
	if second == nil || *second != want {
		t.Errorf("second load = %+v", second)
	}

	if n := fake.Calls(http.MethodPost, TableSettings); n != 1 {
		t.Errorf("settings inserts = %d, want exactly 1", n)
	}
	if n := len(fake.Rows(TableSettings)); n != 1 {
		t.Errorf("settings rows = %d, want 1", n)
	}
}

func TestLoadUserSettingsReadError(t *testing.T) {
	fake, s, logs := setup(t)
	fake.Fail(http.MethodGet, TableSettings, backendtest.Failure{Status: 500, Code: "XX000", Message: "boom"})

	if got := s.LoadUserSettings(context.Background(), "u1"); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
	if fake.Calls(http.MethodPost, TableSettings) != 0 {
		t.Error("a failed read must not create defaults")
	}
	if logs.FilterLevelExact(zapcore.WarnLevel).Len() != 1 {
		t.Errorf("expected one warning, got %v", logs.All())
	}
}

func TestLoadUserSettingsInsertErrorReturnsDefaults(t *testing.T) {
	fake, s, logs := setup(t)
	fake.Fail(http.MethodPost, TableSettings, backendtest.Failure{Status: 403, Code: "42501", Message: "permission denied"})

	got := s.LoadUserSettings(context.Background(), "u1")
	if got == nil || *got != DefaultSettings("u1") {
		t.Errorf("got %+v, want defaults", got)
	}
	if logs.FilterLevelExact(zapcore.ErrorLevel).Len() != 1 {
		t.Errorf("expected one error log, got %v", logs.All())
	}
}

func TestSaveUserSettings(t *testing.T) {
	fake, s, _ := setup(t)
	ctx := context.Background()
	s.LoadUserSettings(ctx, "u1")

	if err := s.SaveUserSettings(ctx, "u1", Settings{FeeRatePct: 0.1, TaxRatePct: 0.15, LotSize: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got := s.LoadUserSettings(ctx, "u1")
	want := Settings{UserID: "u1", FeeRatePct: 0.1, TaxRatePct: 0.15, LotSize: 1}
	if got == nil || *got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if n := len(fake.Rows(TableSettings)); n != 1 {
		t.Errorf("rows = %d, want 1 after upsert", n)
	}
}

func TestBrokerLifecycle(t *testing.T) {
	_, s, _ := setup(t)
	ctx := context.Background()

	a, err := s.AddBroker(ctx, "u1", "Fubon", 28)
	if err != nil {
		t.Fatalf("AddBroker: %v", err)
	}
	if a.ID == "" || a.Name != "Fubon" || a.DiscountPercent != 28 {
		t.Errorf("added = %+v", a)
	}
	b, _ := s.AddBroker(ctx, "u1", "Yuanta", 60)
	s.AddBroker(ctx, "u2", "Other", 0)

	brokers := s.LoadBrokers(ctx, "u1")
	if len(brokers) != 2 || brokers[0].Name != "Fubon" || brokers[1].Name != "Yuanta" {
		t.Fatalf("brokers = %+v", brokers)
	}

	if err := s.UpdateBroker(ctx, b.ID, "Yuanta Sec", 65.5); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteBroker(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	brokers = s.LoadBrokers(ctx, "u1")
	want := []Broker{{ID: b.ID, Name: "Yuanta Sec", DiscountPercent: 65.5}}
	if len(brokers) != 1 || brokers[0] != want[0] {
		t.Errorf("brokers = %+v, want %+v", brokers, want)
	}
}

func TestTradeRoundTrip(t *testing.T) {
	_, s, _ := setup(t)
	ctx := context.Background()
	in := sampleTrade()

	added, err := s.AddTrade(ctx, "u1", in)
	if err != nil {
		t.Fatalf("AddTrade: %v", err)
	}
	if added.ID == "" {
		t.Fatal("expected id")
	}
	in.ID = added.ID
	if *added != in {
		t.Errorf("added = %+v, want %+v", *added, in)
	}

	trades := s.LoadTrades(ctx, "u1")
	if len(trades) != 1 || trades[0] != in {
		t.Errorf("loaded = %+v, want %+v", trades, in)
	}
}

func TestTradesOrderedByDate(t *testing.T) {
	_, s, _ := setup(t)
	ctx := context.Background()
	for _, d := range []string{"2024-05-01", "2023-12-31", "2024-01-15"} {
		tr := sampleTrade()
		tr.Date = d
		if _, err := s.AddTrade(ctx, "u1", tr); err != nil {
			t.Fatal(err)
		}
	}
	trades := s.LoadTrades(ctx, "u1")
	if len(trades) != 3 || trades[0].Date != "2023-12-31" || trades[2].Date != "2024-05-01" {
		t.Errorf("trades out of order: %+v", trades)
	}
}

func TestUpdateAndDeleteTrade(t *testing.T) {
	_, s, _ := setup(t)
	ctx := context.Background()
	added, _ := s.AddTrade(ctx, "u1", sampleTrade())

	changed := sampleTrade()
	changed.Side = "sell"
	changed.Tax = 3675
	if err := s.UpdateTrade(ctx, added.ID, changed); err != nil {
		t.Fatal(err)
	}
	trades := s.LoadTrades(ctx, "u1")
	if len(trades) != 1 || trades[0].Side != "sell" || trades[0].Tax != 3675 {
		t.Errorf("after update = %+v", trades)
	}

	if err := s.DeleteTrade(ctx, added.ID); err != nil {
		t.Fatal(err)
	}
	if trades := s.LoadTrades(ctx, "u1"); len(trades) != 0 {
		t.Errorf("after delete = %+v", trades)
	}
}

func TestBulkAddAndDeleteAll(t *testing.T) {
	fake, s, _ := setup(t)
	ctx := context.Background()

	batch := []Trade{sampleTrade(), sampleTrade(), sampleTrade()}
	batch[1].Code = "0050"
	saved, err := s.BulkAddTrades(ctx, "u1", batch)
	if err != nil {
		t.Fatalf("BulkAddTrades: %v", err)
	}
	if len(saved) != 3 || saved[1].Code != "0050" || saved[0].ID == "" {
		t.Errorf("saved = %+v", saved)
	}
	if n := fake.Calls(http.MethodPost, TableTrades); n != 1 {
		t.Errorf("inserts = %d, want a single request", n)
	}

	s.AddTrade(ctx, "u2", sampleTrade())
	if err := s.DeleteAllTrades(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if n := len(s.LoadTrades(ctx, "u1")); n != 0 {
		t.Errorf("u1 trades = %d, want 0", n)
	}
	if n := len(s.LoadTrades(ctx, "u2")); n != 1 {
		t.Errorf("u2 trades = %d, want 1", n)
	}
}

func TestBulkAddEmpty(t *testing.T) {
	fake, s, _ := setup(t)
	saved, err := s.BulkAddTrades(context.Background(), "u1", nil)
	if err != nil || saved == nil || len(saved) != 0 {
		t.Errorf("saved = %#v, err = %v", saved, err)
	}
	if fake.Calls(http.MethodPost, TableTrades) != 0 {
		t.Error("empty batch should not hit the backend")
	}
}

func TestWriteErrorsSurfaceUnchanged(t *testing.T) {
	fake, s, logs := setup(t)
	ctx := context.Background()
	failure := backendtest.Failure{Status: 409, Code: "23505", Message: "duplicate key value violates unique constraint"}
	for _, m := range []string{http.MethodPost, http.MethodPatch, http.MethodDelete} {
		fake.Fail(m, TableTrades, failure)
		fake.Fail(m, TableBrokers, failure)
		fake.Fail(m, TableSettings, failure)
	}

	ops := map[string]func() error{
		"SaveUserSettings": func() error { return s.SaveUserSettings(ctx, "u1", DefaultSettings("u1")) },
		"AddBroker":        func() error { _, err := s.AddBroker(ctx, "u1", "x", 0); return err },
		"UpdateBroker":     func() error { return s.UpdateBroker(ctx, "b1", "x", 0) },
		"DeleteBroker":     func() error { return s.DeleteBroker(ctx, "b1") },
		"AddTrade":         func() error { _, err := s.AddTrade(ctx, "u1", sampleTrade()); return err },
		"UpdateTrade":      func() error { return s.UpdateTrade(ctx, "t1", sampleTrade()) },
		"DeleteTrade":      func() error { return s.DeleteTrade(ctx, "t1") },
		"BulkAddTrades":    func() error { _, err := s.BulkAddTrades(ctx, "u1", []Trade{sampleTrade()}); return err },
		"DeleteAllTrades":  func() error { return s.DeleteAllTrades(ctx, "u1") },
	}
	for name, op := range ops {
		err := op()
		be, ok := err.(*backend.Error)
		if !ok {
			t.Errorf("%s: err = %T %v, want unwrapped *backend.Error", name, err, err)
			continue
		}
		if be.Code != failure.Code || be.Message != failure.Message || be.Status != failure.Status {
			t.Errorf("%s: err = %+v", name, be)
		}
	}
	if got := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); got != len(ops) {
		t.Errorf("error logs = %d, want %d", got, len(ops))
	}
}

func TestListReadFailuresReturnEmpty(t *testing.T) {
	fake, s, _ := setup(t)
	fake.Fail(http.MethodGet, TableBrokers, backendtest.Failure{Status: 500, Message: "down"})
	fake.Fail(http.MethodGet, TableTrades, backendtest.Failure{Status: 500, Message: "down"})

	brokers := s.LoadBrokers(context.Background(), "u1")
	if brokers == nil || len(brokers) != 0 {
		t.Errorf("brokers = %#v, want empty slice", brokers)
	}
	trades := s.LoadTrades(context.Background(), "u1")
	if trades == nil || len(trades) != 0 {
		t.Errorf("trades = %#v, want empty slice", trades)
	}
}

func TestForUsesSessionToken(t *testing.T) {
	fake, s, _ := setup(t)
	fake.AddUser("ann@example.com", "pw")
	client, _ := backend.New(fake.URL, backendtest.AnonKey)
	sess, err := client.SignInWithPassword(context.Background(), "ann@example.com", "pw")
	if err != nil {
		t.Fatal(err)
	}
	user := s.For(sess)
	if user == s {
		t.Fatal("For should derive a new store")
	}
	if _, err := user.AddBroker(context.Background(), sess.User.ID, "Fubon", 0); err != nil {
		t.Fatal(err)
	}
	rows := fake.Rows(TableBrokers)
	if len(rows) != 1 || rows[0]["user_id"] != sess.User.ID {
		t.Errorf("rows = %v", rows)
	}
}

func TestWriteDecodeFailureIsLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":"r1","name":"Fubon","discount_percent":"n/a","price":"n/a","user_id":"u1"}]`))
	}))
	t.Cleanup(srv.Close)
	client, err := backend.New(srv.URL, "key")
	if err != nil {
		t.Fatal(err)
	}
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewStore(client, zap.New(core))
	ctx := context.Background()

	if b, err := s.AddBroker(ctx, "u1", "Fubon", 60); err == nil || b != nil {
		t.Errorf("AddBroker = %+v, %v; want decode error", b, err)
	}
	if tr, err := s.AddTrade(ctx, "u1", sampleTrade()); err == nil || tr != nil {
		t.Errorf("AddTrade = %+v, %v; want decode error", tr, err)
	}
	if ts, err := s.BulkAddTrades(ctx, "u1", []Trade{sampleTrade()}); err == nil || ts != nil {
		t.Errorf("BulkAddTrades = %+v, %v; want decode error", ts, err)
	}

	errs := logs.FilterLevelExact(zapcore.ErrorLevel)
	if errs.Len() != 3 {
		t.Fatalf("error logs = %d, want 3: %v", errs.Len(), logs.All())
	}
	for i, method := range []string{"AddBroker", "AddTrade", "BulkAddTrades"} {
		if got := errs.All()[i].ContextMap()["method"]; got != method {
			t.Errorf("log %d method = %v, want %s", i, got, method)
		}
	}
}
