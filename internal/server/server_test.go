package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountservice "github.com/christianseyboth/bolt-hackathon-sub000/internal/account/service"
	auditservice "github.com/christianseyboth/bolt-hackathon-sub000/internal/audit/service"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/billingtest"
	billingdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/domain"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/webhook"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/cache"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/clock"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/config"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/events"
	subdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/subscription/domain"
	subrepository "github.com/christianseyboth/bolt-hackathon-sub000/internal/subscription/repository"
	subservice "github.com/christianseyboth/bolt-hackathon-sub000/internal/subscription/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type serverFixture struct {
	server *Server
	db     *gorm.DB
	fake   *billingtest.FakeProvider
	node   *snowflake.Node
}

func TestEndpointsRequireSession(t *testing.T) {
	f := newServerFixture(t)

	paths := []string{
		"/api/upgrade-subscription",
		"/api/cancel-subscription",
		"/api/reactivate-subscription",
		"/api/cancel-scheduled-change",
		"/api/sync-subscription-status",
		"/api/sync-after-checkout",
		"/api/sync-billing-info",
	}
	for _, path := range paths {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{}`))
		f.server.engine.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s without session = %d, want 401", path, rec.Code)
		}
	}
}

func TestUpgradeSubscriptionEndToEnd(t *testing.T) {
	f := newServerFixture(t)
	accountID, token := f.seedSession(t, 2001)
	f.seedLedgerRow(t, accountID, "cus_2001")
	f.fake.SeedCustomer("cus_2001", billingdomain.CustomerProfile{Email: "a2001@example.com"})
	f.fake.SeedPaymentMethod("cus_2001", billingdomain.PaymentMethod{ID: "pm_1"}, true)

	body := `{"accountId":"` + accountID.String() + `","newPriceId":"price_team_monthly"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upgrade-subscription", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+token)
	f.server.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success      bool `json:"success"`
		Subscription struct {
			ID       string `json:"id"`
			PlanName string `json:"planName"`
			Seats    int    `json:"seats"`
			IsNew    bool   `json:"isNew"`
		} `json:"subscription"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Subscription.PlanName != "Team" || resp.Subscription.Seats != 20 {
		t.Errorf("response = %+v", resp)
	}
	if !resp.Subscription.IsNew {
		t.Error("expected a new subscription")
	}
}

func TestUpgradeWithoutPaymentMethodReturns402(t *testing.T) {
	f := newServerFixture(t)
	accountID, token := f.seedSession(t, 2002)
	f.seedLedgerRow(t, accountID, "cus_2002")
	f.fake.SeedCustomer("cus_2002", billingdomain.CustomerProfile{Email: "a2002@example.com"})

	body := `{"accountId":"` + accountID.String() + `","newPriceId":"price_solo_monthly"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upgrade-subscription", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+token)
	f.server.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		NeedsCheckout bool `json:"needsCheckout"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.NeedsCheckout {
		t.Error("needsCheckout flag missing")
	}
}

func TestForeignAccountReadsAsNotFound(t *testing.T) {
	f := newServerFixture(t)
	_, token := f.seedSession(t, 2003)
	other := snowflake.ParseInt64(999999)

	body := `{"accountId":"` + other.String() + `","newPriceId":"price_solo_monthly"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upgrade-subscription", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+token)
	f.server.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newServerFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewBufferString(`{"id":"evt_x"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")
	f.server.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCancelWithoutPeriodEndFlagRejected(t *testing.T) {
	f := newServerFixture(t)
	accountID, token := f.seedSession(t, 2004)

	body := `{"accountId":"` + accountID.String() + `","subscriptionId":"sub_x","cancelAtPeriodEnd":false}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cancel-subscription", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+token)
	f.server.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetSubscriptionReportsDerivedPhase(t *testing.T) {
	f := newServerFixture(t)
	accountID, token := f.seedSession(t, 2005)

	subscriptionID := "sub_2005"
	past := time.Now().UTC().Add(-time.Hour)
	record := &subdomain.Record{
		ID:                     f.node.Generate(),
		AccountID:              accountID,
		PlanName:               "Solo",
		Seats:                  1,
		AnalysisAmount:         5,
		SubscriptionStatus:     "active",
		ProviderSubscriptionID: &subscriptionID,
		CancelAtPeriodEnd:      true,
		CurrentPeriodEnd:       &past,
		CreatedAt:              past,
		UpdatedAt:              past,
	}
	if err := f.db.Create(record).Error; err != nil {
		t.Fatalf("seed ledger row: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/billing/subscription?accountId="+accountID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	f.server.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Phase string `json:"phase"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Phase != string(subdomain.PhaseExpired) {
		t.Errorf("phase = %q, want %q", resp.Phase, subdomain.PhaseExpired)
	}
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupServerTestDB(t)
	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	log := zap.NewNop()
	clk := clock.SystemClock{}
	fake := billingtest.NewFakeProvider()
	cfg := config.Config{
		Environment: "test",
		Stripe:      config.Stripe{WebhookSecret: "whsec_server_test"},
		RateLimit:   config.RateLimit{Limit: 100, Window: time.Minute},
	}

	accounts := accountservice.NewService(accountservice.Params{DB: db, Log: log, GenID: node, Clock: clk})
	audit := auditservice.NewService(auditservice.Params{DB: db, Log: log, GenID: node, Clock: clk})
	outbox := events.NewOutbox(events.OutboxParams{DB: db, Log: log, GenID: node, Clock: clk})
	repo := subrepository.NewRepository(subrepository.Params{DB: db})
	subscriptions := subservice.NewService(subservice.Params{
		Repo:     repo,
		Accounts: accounts,
		Provider: fake,
		Audit:    audit,
		Outbox:   outbox,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Invoices: cache.NewTTLCache[string, []billingdomain.Invoice](),
	})
	ingester := webhook.NewService(webhook.Params{
		DB:     db,
		Log:    log,
		GenID:  node,
		Clock:  clk,
		Config: cfg,
		Syncer: subscriptions,
	})

	engine := gin.New()
	server := NewServer(Params{
		Config:          cfg,
		DB:              db,
		Log:             log,
		Engine:          engine,
		Subscriptions:   subscriptions,
		Accounts:        accounts,
		WebhookIngester: ingester,
		Clock:           clk,
	})
	server.RegisterAPIRoutes()

	return &serverFixture{server: server, db: db, fake: fake, node: node}
}

func (f *serverFixture) seedSession(t *testing.T, id int64) (snowflake.ID, string) {
	t.Helper()
	accountID := snowflake.ParseInt64(id)
	email := accountID.String() + "@example.com"
	if _, err := f.server.accountSvc.Ensure(context.Background(), accountID, email); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	token := "tok_" + accountID.String()
	if err := f.db.Exec(
		`INSERT INTO sessions (id, account_id, email, token_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		int64(f.node.Generate()), int64(accountID), email, hashSessionToken(token), time.Now().UTC(),
	).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return accountID, token
}

func (f *serverFixture) seedLedgerRow(t *testing.T, accountID snowflake.ID, customerID string) {
	t.Helper()
	record := &subdomain.Record{
		ID:                 f.node.Generate(),
		AccountID:          accountID,
		PlanName:           "Free",
		Seats:              1,
		AnalysisAmount:     100,
		SubscriptionStatus: "active",
		CreatedAt:          time.Now().UTC().Add(-time.Hour),
		UpdatedAt:          time.Now().UTC().Add(-time.Hour),
	}
	if customerID != "" {
		record.ProviderCustomerID = &customerID
	}
	if err := f.db.Create(record).Error; err != nil {
		t.Fatalf("seed ledger row: %v", err)
	}
}

var serverTestDBSeq atomic.Int64

func setupServerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:servertest%d?mode=memory&cache=shared", serverTestDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY,
			email TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			billing_email TEXT NOT NULL DEFAULT '',
			billing_type TEXT NOT NULL DEFAULT 'individual',
			company_name TEXT,
			address_line1 TEXT,
			city TEXT,
			postal_code TEXT,
			country TEXT,
			tax_id TEXT,
			vat_id TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id INTEGER PRIMARY KEY,
			account_id BIGINT NOT NULL,
			plan_name TEXT NOT NULL DEFAULT 'Free',
			seats INTEGER NOT NULL DEFAULT 1,
			price_per_seat NUMERIC NOT NULL DEFAULT 0,
			total_price NUMERIC NOT NULL DEFAULT 0,
			analysis_amount INTEGER NOT NULL DEFAULT 100,
			analysis_used INTEGER NOT NULL DEFAULT 0,
			subscription_status TEXT NOT NULL DEFAULT 'active',
			provider_customer_id TEXT,
			provider_subscription_id TEXT,
			current_period_start DATETIME,
			current_period_end DATETIME,
			cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
			subscription_ends_at DATETIME,
			scheduled_plan_change TEXT,
			scheduled_change_date DATETIME,
			schedule_id TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			account_id BIGINT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			token_hash TEXT NOT NULL,
			expires_at DATETIME,
			created_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_sessions_token_hash ON sessions (token_hash)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id INTEGER PRIMARY KEY,
			account_id BIGINT,
			actor_type TEXT NOT NULL,
			actor_id TEXT,
			action TEXT NOT NULL,
			target_type TEXT NOT NULL,
			target_id TEXT,
			metadata TEXT NOT NULL DEFAULT '{}',
			ip_address TEXT,
			user_agent TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS billing_events (
			id INTEGER PRIMARY KEY,
			account_id BIGINT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			dedupe_key TEXT,
			published BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_billing_events_dedupe
			ON billing_events (account_id, dedupe_key)`,
		`CREATE TABLE IF NOT EXISTS provider_events (
			id INTEGER PRIMARY KEY,
			provider TEXT NOT NULL,
			provider_event_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			account_id BIGINT,
			payload TEXT NOT NULL DEFAULT '{}',
			received_at DATETIME NOT NULL,
			processed_at DATETIME
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_provider_events_event
			ON provider_events (provider, provider_event_id)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}
