package models_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/WeblateOrg/website-sub000/config"
	"github.com/WeblateOrg/website-sub000/models"
	"github.com/WeblateOrg/website-sub000/utils"
	"github.com/shopspring/decimal"
)

// flatRateProvider answers every conversion at parity so invoices without
// package items can be created against a real database.
type flatRateProvider struct{}

func (flatRateProvider) Rate(ctx context.Context, currency string, day time.Time) (decimal.Decimal, error) {
	return decimal.New(1, 0), nil
}

func (flatRateProvider) CrossRate(ctx context.Context, source, target string, day time.Time) (decimal.Decimal, error) {
	return decimal.New(1, 0), nil
}

func (flatRateProvider) Convert(ctx context.Context, amount decimal.Decimal, from, to string, day time.Time) (decimal.Decimal, error) {
	return amount, nil
}

func TestInvoiceNumberingAgainstMySQL(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	mysqlID := startMySQLContainer(t)
	defer dockerRmForce(mysqlID)

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", dockerHostPort(t, mysqlID, "3306/tcp"))
	t.Setenv("DB_NAME", "billing_test")

	config.ConnectDatabaseWithRetry()
	if err := models.Migrate(config.GetDB()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	rp := flatRateProvider{}

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{
		Name:        "Integration Customer",
		CountryCode: "CZ",
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}

	issue := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	newInvoice := func(kind models.InvoiceKind, issueDate time.Time) *models.NewInvoice {
		return &models.NewInvoice{
			Kind:       kind,
			CustomerId: customer.ID,
			Category:   models.CategoryHosting,
			IssueDate:  issueDate,
			Currency:   models.CurrencyCZK,
		}
	}

	t.Run("sequences are gapless per kind and year", func(t *testing.T) {
		wantNumbers := []string{"1026000001", "1026000002", "1026000003"}
		for i, want := range wantNumbers {
			inv, err := models.CreateInvoice(ctx, newInvoice(models.KindInvoice, issue), rp)
			if err != nil {
				t.Fatalf("create invoice %d: %v", i+1, err)
			}
			if inv.Sequence != i+1 {
				t.Errorf("invoice %d: sequence = %d, want %d", i+1, inv.Sequence, i+1)
			}
			if inv.Number != want {
				t.Errorf("invoice %d: number = %q, want %q", i+1, inv.Number, want)
			}
		}

		proforma, err := models.CreateInvoice(ctx, newInvoice(models.KindProforma, issue), rp)
		if err != nil {
			t.Fatalf("create proforma: %v", err)
		}
		if proforma.Sequence != 1 {
			t.Errorf("proforma sequence = %d, want 1 (own series)", proforma.Sequence)
		}
		if proforma.Number != "2026000001" {
			t.Errorf("proforma number = %q, want %q", proforma.Number, "2026000001")
		}

		nextYear, err := models.CreateInvoice(ctx,
			newInvoice(models.KindInvoice, time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC)), rp)
		if err != nil {
			t.Fatalf("create next-year invoice: %v", err)
		}
		if nextYear.Sequence != 1 {
			t.Errorf("next-year sequence = %d, want 1 (own series)", nextYear.Sequence)
		}
	})

	t.Run("concurrent first allocations of a series both succeed", func(t *testing.T) {
		// KindQuote has no counter row yet, so both workers race to seed it.
		const workers = 2
		sequences := make([]int, workers)
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				inv, err := models.CreateInvoice(ctx, newInvoice(models.KindQuote, issue), rp)
				if err != nil {
					errs[i] = err
					return
				}
				sequences[i] = inv.Sequence
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Fatalf("worker %d: %v", i, err)
			}
		}
		sort.Ints(sequences)
		if sequences[0] != 1 || sequences[1] != 2 {
			t.Errorf("sequences = %v, want [1 2]", sequences)
		}
	})

	t.Run("lookups only map missing rows to not found", func(t *testing.T) {
		if _, err := models.GetInvoiceByNumber(ctx, "1099000001"); !errors.Is(err, utils.ErrorRecordNotFound) {
			t.Errorf("GetInvoiceByNumber(unknown) = %v, want ErrorRecordNotFound", err)
		}
		if _, err := models.GetBankAccount(ctx, models.CurrencyGBP); !errors.Is(err, utils.ErrorRecordNotFound) {
			t.Errorf("GetBankAccount(unseeded) = %v, want ErrorRecordNotFound", err)
		}
	})

	t.Run("second payment for a draft is rejected", func(t *testing.T) {
		draft, err := models.CreateInvoice(ctx, newInvoice(models.KindDraft, issue), rp)
		if err != nil {
			t.Fatalf("create draft: %v", err)
		}
		if _, err := draft.CreatePayment(ctx); err != nil {
			t.Fatalf("first payment: %v", err)
		}
		if _, err := draft.CreatePayment(ctx); !errors.Is(err, utils.ErrorInvalidOperation) {
			t.Errorf("second payment = %v, want ErrorInvalidOperation", err)
		}
	})
}

func startMySQLContainer(t *testing.T) string {
	t.Helper()
	id := dockerRun(t, "run", "-d",
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=billing_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password")

	deadline := time.Now().Add(2 * time.Minute)
	for time.Now().Before(deadline) {
		out, err := exec.Command("docker", "exec", id,
			"mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw").CombinedOutput()
		if err == nil && strings.Contains(string(out), "alive") {
			return id
		}
		time.Sleep(2 * time.Second)
	}
	dockerRmForce(id)
	t.Fatal("mysql container did not become ready in time")
	return ""
}

func dockerHostPort(t *testing.T, id, containerPort string) string {
	t.Helper()
	out := dockerRun(t, "port", id, containerPort)
	m := regexp.MustCompile(`:(\d+)`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("cannot parse docker port output %q", out)
	}
	return m[1]
}

func dockerRmForce(id string) {
	_ = exec.Command("docker", "rm", "-f", id).Run()
}

func dockerRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := exec.Command("docker", args...).CombinedOutput()
	if err != nil {
		t.Fatalf("docker %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}
