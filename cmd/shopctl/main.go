// shopctl is a command-line client for the Flora shop backend. Credentials
// come from FLORA_EMAIL / FLORA_PASSWORD (or a .env file); each invocation
// signs in, runs one operation and exits.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"flora-shops.com/internal/app"
	"flora-shops.com/internal/config"
	"flora-shops.com/internal/identity"
	"flora-shops.com/internal/obs"
	"flora-shops.com/internal/shop"
)

var version = "0.3.1"

func main() {
	obs.Init()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Command-line client for the Flora flower shop",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRegisterCmd(),
		newVerifyCmd(),
		newWhoamiCmd(),
		newFlowersCmd(),
		newCartCmd(),
		newCheckoutCmd(),
		newOrdersCmd(),
		newAddressesCmd(),
		newSellerCmd(),
	)
	return root
}

func newApp() (*app.App, context.Context, context.CancelFunc) {
	a := app.New(config.Load())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	return a, ctx, cancel
}

// signIn establishes a session from the environment credentials.
func signIn(ctx context.Context, a *app.App) error {
	email := os.Getenv("FLORA_EMAIL")
	password := os.Getenv("FLORA_PASSWORD")
	if email == "" || password == "" {
		return errors.New("FLORA_EMAIL and FLORA_PASSWORD must be set")
	}
	res, err := a.Session.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if res.NextStep == identity.StepConfirmSignUp {
		return errors.New("account not confirmed, run: shopctl verify --email " + email + " --code <code>")
	}
	if res.User == nil {
		return fmt.Errorf("login: unexpected next step %q", res.NextStep)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// Accounts ------------------------------------------------------------------

func newRegisterCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			res, err := a.Session.Register(ctx, email, password)
			if err != nil {
				return err
			}
			if res.NextStep == identity.StepConfirmSignUp {
				fmt.Println("registered; confirm with: shopctl verify --email", email, "--code <code>")
				return nil
			}
			fmt.Println("registered")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var email, code string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Confirm an account with the emailed code",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			ok, err := a.Session.VerifyCode(ctx, email, code)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("verification incomplete")
			}
			fmt.Println("account confirmed")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&code, "code", "", "confirmation code")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Sign in and print the synced profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			return printJSON(a.Session.Snapshot().User)
		},
	}
}

// Catalog -------------------------------------------------------------------

func newFlowersCmd() *cobra.Command {
	var page, pageSize int
	cmd := &cobra.Command{
		Use:   "flowers [id]",
		Short: "Browse the public catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()

			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				f := a.Client.Flowers().Get(ctx, id)
				if f == nil {
					return fmt.Errorf("flower %d not found", id)
				}
				return printJSON(f)
			}

			params := url.Values{}
			if page > 0 {
				params.Set("page", strconv.Itoa(page))
				params.Set("pageSize", strconv.Itoa(pageSize))
			}
			res, err := a.Client.Flowers().List(ctx, params)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "page number (0 lists everything)")
	cmd.Flags().IntVar(&pageSize, "page-size", 10, "page size")
	return cmd
}

// Cart ----------------------------------------------------------------------

func newCartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show cart contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			if err := a.Cart.Fetch(ctx); err != nil {
				return err
			}
			if err := printJSON(a.Cart.Items()); err != nil {
				return err
			}
			fmt.Printf("items=%d total=%d\n", a.Cart.TotalItems(), a.Cart.TotalPrice())
			return nil
		},
	}

	var qty int
	add := &cobra.Command{
		Use:   "add <flower-id>",
		Short: "Add a flower to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.Cart.Add(ctx, id, qty); err != nil {
				return err
			}
			fmt.Printf("added; cart now holds %d items\n", a.Cart.TotalItems())
			return nil
		},
	}
	add.Flags().IntVar(&qty, "qty", 1, "quantity to add")

	var delta int
	change := &cobra.Command{
		Use:   "change <cart-id>",
		Short: "Adjust a line quantity by a delta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			if err := a.Cart.Fetch(ctx); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.Cart.ChangeQuantity(ctx, id, delta)
		},
	}
	change.Flags().IntVar(&delta, "delta", 1, "quantity delta, negative to decrease")

	rm := &cobra.Command{
		Use:   "rm <cart-id>",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.Cart.Remove(ctx, id)
		},
	}

	cmd.AddCommand(list, add, change, rm)
	return cmd
}

func newCheckoutCmd() *cobra.Command {
	var address, name, phone string
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order from the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			if err := a.Cart.Fetch(ctx); err != nil {
				return err
			}
			res := a.Cart.Checkout(ctx, address, name, phone)
			if !res.Success {
				return errors.New(res.Err)
			}
			fmt.Printf("order %d placed\n", res.OrderID)
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "shipping address")
	cmd.Flags().StringVar(&name, "name", "", "receiver name")
	cmd.Flags().StringVar(&phone, "phone", "", "receiver phone")
	_ = cmd.MarkFlagRequired("address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func newOrdersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "Show order history",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			orders, err := a.Client.Orders().List(ctx)
			if err != nil {
				return err
			}
			return printJSON(orders)
		},
	}
}

// Addresses -----------------------------------------------------------------

func newAddressesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "Manage the address book",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show saved addresses",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			addrs, err := a.Client.Addresses().List(ctx)
			if err != nil {
				return err
			}
			return printJSON(addrs)
		},
	}

	var recipient, phone, full string
	var dflt bool
	add := &cobra.Command{
		Use:   "add",
		Short: "Save a new address",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			addr, err := a.Client.Addresses().Save(ctx, shop.Address{
				RecipientName: recipient,
				PhoneNumber:   phone,
				FullAddress:   full,
				Default:       dflt,
			})
			if err != nil {
				return err
			}
			return printJSON(addr)
		},
	}
	add.Flags().StringVar(&recipient, "recipient", "", "recipient name")
	add.Flags().StringVar(&phone, "phone", "", "phone number")
	add.Flags().StringVar(&full, "address", "", "full address")
	add.Flags().BoolVar(&dflt, "default", false, "mark as default")
	_ = add.MarkFlagRequired("recipient")
	_ = add.MarkFlagRequired("address")

	rm := &cobra.Command{
		Use:   "rm <address-id>",
		Short: "Delete an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.Client.Addresses().Delete(ctx, id)
		},
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}

// Seller --------------------------------------------------------------------

func newSellerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seller",
		Short: "Seller onboarding and inventory",
	}

	var realName, idCard, phone, bizAddr string
	apply := &cobra.Command{
		Use:   "apply",
		Short: "Submit a seller application",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			err := a.Client.Seller().Apply(ctx, shop.SellerApplication{
				RealName:        realName,
				IDCardNumber:    idCard,
				PhoneNumber:     phone,
				BusinessAddress: bizAddr,
			})
			if err != nil {
				return err
			}
			fmt.Println("application submitted")
			return nil
		},
	}
	apply.Flags().StringVar(&realName, "name", "", "legal name")
	apply.Flags().StringVar(&idCard, "id-card", "", "id card number")
	apply.Flags().StringVar(&phone, "phone", "", "contact phone")
	apply.Flags().StringVar(&bizAddr, "address", "", "business address")
	_ = apply.MarkFlagRequired("name")
	_ = apply.MarkFlagRequired("id-card")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the application review state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			// Pick up a role change granted since the last sign-in.
			if err := a.Session.RefreshUserSession(ctx); err != nil {
				return err
			}
			fmt.Println(a.Client.Seller().Status(ctx))
			return nil
		},
	}

	inventory := &cobra.Command{
		Use:   "inventory",
		Short: "List own products",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			flowers, err := a.Client.Seller().Inventory(ctx)
			if err != nil {
				return err
			}
			return printJSON(flowers)
		},
	}

	var fName, fDesc, fCategory, fImage string
	var fPrice int64
	var fStock int
	create := &cobra.Command{
		Use:   "create-flower",
		Short: "List a new product",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			err := a.Client.Seller().CreateFlower(ctx, shop.FlowerData{
				Name:        fName,
				Description: fDesc,
				Price:       fPrice,
				Stock:       fStock,
				Category:    fCategory,
				ImageURL:    fImage,
			})
			if err != nil {
				return err
			}
			fmt.Println("flower listed")
			return nil
		},
	}
	create.Flags().StringVar(&fName, "name", "", "product name")
	create.Flags().StringVar(&fDesc, "description", "", "product description")
	create.Flags().Int64Var(&fPrice, "price", 0, "unit price in minor units")
	create.Flags().IntVar(&fStock, "stock", 0, "stock count")
	create.Flags().StringVar(&fCategory, "category", "", "category")
	create.Flags().StringVar(&fImage, "image-url", "", "image URL")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("price")

	sellerOrders := &cobra.Command{
		Use:   "orders",
		Short: "List incoming orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			orders, err := a.Client.Seller().Orders(ctx)
			if err != nil {
				return err
			}
			return printJSON(orders)
		},
	}

	ship := &cobra.Command{
		Use:   "ship <order-id>",
		Short: "Mark an order shipped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel := newApp()
			defer cancel()
			if err := signIn(ctx, a); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.Client.Seller().Ship(ctx, id)
		},
	}

	cmd.AddCommand(apply, status, inventory, create, sellerOrders, ship)
	return cmd
}
