package app

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"flora-shops.com/internal/config"
	"flora-shops.com/internal/guard"
	"flora-shops.com/internal/identity"
	"flora-shops.com/internal/mockshop"
	"flora-shops.com/internal/shop"
)

func newStack(t *testing.T) (*App, *mockshop.API) {
	t.Helper()
	api := mockshop.New("test-secret", "test")
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return New(config.Config{
		APIURL:      srv.URL,
		IDPURL:      srv.URL + "/idp",
		IDPClientID: "test-client",
		HTTPTimeout: 5 * time.Second,
	}), api
}

func register(t *testing.T, a *App, email string) {
	t.Helper()
	ctx := context.Background()
	res, err := a.Session.Register(ctx, email, "pw-1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.NextStep != identity.StepConfirmSignUp {
		t.Fatalf("expected confirm step, got %q", res.NextStep)
	}
	if ok, err := a.Session.VerifyCode(ctx, email, "123456"); err != nil || !ok {
		t.Fatalf("verify: ok=%t err=%v", ok, err)
	}
}

func TestEndToEndLoginAndCheckout(t *testing.T) {
	a, _ := newStack(t)
	ctx := context.Background()

	register(t, a, "e2e@flora.test")
	if _, err := a.Session.Login(ctx, "e2e@flora.test", "pw-1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	state := a.Session.Snapshot()
	if !state.Authenticated || state.User == nil || state.Token == "" {
		t.Fatalf("session not established: %+v", state)
	}
	if state.User.Email != "e2e@flora.test" || state.User.Role != shop.RoleCustomer {
		t.Fatalf("unexpected profile: %+v", state.User)
	}

	page, err := a.Client.Flowers().List(ctx, nil)
	if err != nil || len(page.List) == 0 {
		t.Fatalf("catalog: %v (%d items)", err, len(page.List))
	}

	if err := a.Cart.Add(ctx, page.List[0].ID, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	res := a.Cart.Checkout(ctx, "12 Lane", "E2E", "555")
	if !res.Success || res.OrderID == 0 {
		t.Fatalf("checkout: %+v", res)
	}
	if a.Cart.TotalItems() != 0 {
		t.Fatalf("cart not cleared")
	}

	orders, err := a.Client.Orders().List(ctx)
	if err != nil || len(orders) != 1 {
		t.Fatalf("orders: %v (%d)", err, len(orders))
	}
}

func TestEndToEndWrongPassword(t *testing.T) {
	a, _ := newStack(t)
	register(t, a, "locked@flora.test")

	_, err := a.Session.Login(context.Background(), "locked@flora.test", "wrong")
	if identity.CodeOf(err) != identity.CodeInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if state := a.Session.Snapshot(); state.Authenticated || state.Err == "" {
		t.Fatalf("failed login must record the error and stay signed out: %+v", state)
	}
}

func TestEndToEndSellerApprovalNeedsRefresh(t *testing.T) {
	a, api := newStack(t)
	ctx := context.Background()

	register(t, a, "grower@flora.test")
	if _, err := a.Session.Login(ctx, "grower@flora.test", "pw-1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	sellerRoute := guard.Route{Name: "/seller", RequiresAuth: true, RequiresSeller: true}
	if d := a.Guard.Check(ctx, sellerRoute); d.Allowed {
		t.Fatalf("customer passed the seller gate: %+v", d)
	}

	if err := a.Client.Seller().Apply(ctx, shop.SellerApplication{
		RealName: "G. Rower", IDCardNumber: "X1", PhoneNumber: "555", BusinessAddress: "1 Field Rd",
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := a.Client.Seller().Status(ctx); got != shop.StatusPendingReview {
		t.Fatalf("status after apply: %q", got)
	}

	u, ok := api.Store().FindUser("grower@flora.test")
	if !ok {
		t.Fatalf("user missing from store")
	}
	if err := api.Store().ApproveSeller(u.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// The synced profile still carries the pre-approval role until the
	// session is refreshed with freshly issued tokens.
	if err := a.Session.RefreshUserSession(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	state := a.Session.Snapshot()
	if state.User == nil || state.User.Role != shop.RoleSeller {
		t.Fatalf("role upgrade not picked up: %+v", state.User)
	}
	if d := a.Guard.Check(ctx, sellerRoute); !d.Allowed {
		t.Fatalf("approved seller denied: %+v", d)
	}

	if err := a.Client.Seller().CreateFlower(ctx, shop.FlowerData{Name: "Dusk Peony", Price: 2100, Stock: 4}); err != nil {
		t.Fatalf("create flower: %v", err)
	}
	inv, err := a.Client.Seller().Inventory(ctx)
	if err != nil || len(inv) != 1 {
		t.Fatalf("inventory: %v (%d)", err, len(inv))
	}
}

func TestEndToEndLogout(t *testing.T) {
	a, _ := newStack(t)
	ctx := context.Background()

	register(t, a, "leaver@flora.test")
	if _, err := a.Session.Login(ctx, "leaver@flora.test", "pw-1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	a.Session.Logout(ctx)

	if state := a.Session.Snapshot(); state.Authenticated || state.Token != "" || state.User != nil {
		t.Fatalf("state survived logout: %+v", state)
	}
	if d := a.Guard.Check(ctx, guard.Route{Name: "/orders", RequiresAuth: true}); d.Allowed || d.RedirectTo != "/login" {
		t.Fatalf("anonymous navigation allowed: %+v", d)
	}
}
