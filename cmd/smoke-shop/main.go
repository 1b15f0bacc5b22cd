package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"flora-shops.com/internal/app"
	"flora-shops.com/internal/config"
	"flora-shops.com/internal/ids"
	"flora-shops.com/internal/obs"
	"flora-shops.com/internal/shop"
)

// End-to-end exercise against a running mockshop (or a real backend with a
// known confirmation code): register, confirm, login, browse, cart, checkout.
func main() {
	obs.Init()

	cfg := config.Load()
	a := app.New(cfg)

	code := os.Getenv("FLORA_SMOKE_CODE")
	if code == "" {
		code = "123456"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	email := fmt.Sprintf("smoke-%s@flora.test", strings.ToLower(ids.New()))
	password := "Sm0ke-pass!"

	if _, err := a.Session.Register(ctx, email, password); err != nil {
		log.Fatalf("register %s: %v", email, err)
	}
	if ok, err := a.Session.VerifyCode(ctx, email, code); err != nil || !ok {
		log.Fatalf("confirm %s: ok=%t err=%v", email, ok, err)
	}

	res, err := a.Session.Login(ctx, email, password)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	if res.User == nil {
		log.Fatalf("login: unexpected next step %q", res.NextStep)
	}

	state := a.Session.Snapshot()
	if !state.Authenticated || state.User == nil || state.Token == "" {
		log.Fatalf("session not established after login: %+v", state)
	}
	if state.User.Email != email {
		log.Fatalf("profile email mismatch: got %q want %q", state.User.Email, email)
	}

	page, err := a.Client.Flowers().List(ctx, nil)
	if err != nil {
		log.Fatalf("list flowers: %v", err)
	}
	if len(page.List) == 0 {
		log.Fatalf("catalog is empty")
	}
	flower := page.List[0]

	if err := a.Cart.Add(ctx, flower.ID, 2); err != nil {
		log.Fatalf("add to cart: %v", err)
	}
	if got := a.Cart.TotalItems(); got != 2 {
		log.Fatalf("cart total items: got %d want 2", got)
	}
	wantTotal := flower.Price * 2
	if got := a.Cart.TotalPrice(); got != wantTotal {
		log.Fatalf("cart total price: got %d want %d", got, wantTotal)
	}

	result := a.Cart.Checkout(ctx, "12 Greenhouse Lane", "Smoke Tester", "555-0100")
	if !result.Success {
		log.Fatalf("checkout: %s", result.Err)
	}
	if result.OrderID == 0 {
		log.Fatalf("checkout returned no order id")
	}
	if got := a.Cart.TotalItems(); got != 0 {
		log.Fatalf("cart not emptied after checkout: %d items", got)
	}

	orders, err := a.Client.Orders().List(ctx)
	if err != nil {
		log.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != result.OrderID {
		log.Fatalf("order history mismatch: %+v", orders)
	}

	if status := a.Client.Seller().Status(ctx); status != shop.StatusNone {
		log.Fatalf("fresh account seller status: got %q want %q", status, shop.StatusNone)
	}

	a.Session.Logout(ctx)
	if a.Session.Token() != "" {
		log.Fatalf("token survived logout")
	}

	fmt.Printf("✅ flora smoke test passed: user=%s order=%d\n", email, result.OrderID)
}
