package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/bissquit/powerbill/internal/billing"
	"github.com/bissquit/powerbill/internal/domain"
	"github.com/bissquit/powerbill/internal/receipt"
	"github.com/bissquit/powerbill/internal/version"
)

var errUsage = errors.New("usage")

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, c *cli, args []string) error
}

var commandOrder = []string{
	"login", "logout", "whoami", "bills", "bill", "create-bill",
	"toggle-paid", "receipt", "summary", "customers", "ping", "version",
}

var commands = map[string]command{
	"login":       {"-email EMAIL [-password PASSWORD]", "log in and store the session", cmdLogin},
	"logout":      {"", "revoke the token and clear the session", cmdLogout},
	"whoami":      {"", "show the logged-in user", cmdWhoami},
	"bills":       {"[-status all|paid|unpaid]", "list bills, newest first", cmdBills},
	"bill":        {"ID", "show one bill", cmdBill},
	"create-bill": {"-customer ID -usage KWH", "bill a customer", cmdCreateBill},
	"toggle-paid": {"ID", "flip the paid state of a bill", cmdTogglePaid},
	"receipt":     {"ID", "print the receipt of a bill", cmdReceipt},
	"summary":     {"", "show ledger totals", cmdSummary},
	"customers":   {"", "list customers", cmdCustomers},
	"ping":        {"", "check that the API answers", cmdPing},
	"version":     {"", "print the CLI version", cmdVersion},
}

// money formats amounts the way receipts do.
var money = receipt.NewFormatter(time.Local)

func cmdLogin(ctx context.Context, c *cli, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "")
	password := fs.String("password", os.Getenv("POWERBILL_PASSWORD"), "")
	if err := fs.Parse(args); err != nil || *email == "" || *password == "" {
		return errUsage
	}

	result, err := c.api.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if !c.api.Session().IsAuthorized() {
		fmt.Fprintf(c.stdout, "logged in as %s, but the account is not an administrator\n", result.User.Email)
		return nil
	}
	fmt.Fprintf(c.stdout, "logged in as %s (%s); session valid for 1h\n", result.User.Name, result.User.Email)
	return nil
}

func cmdLogout(ctx context.Context, c *cli, _ []string) error {
	if err := c.api.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "logged out")
	return nil
}

func cmdWhoami(ctx context.Context, c *cli, _ []string) error {
	user, err := c.api.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%s <%s> role=%s\n", user.Name, user.Email, user.Role)
	return nil
}

func cmdBills(ctx context.Context, c *cli, args []string) error {
	fs := flag.NewFlagSet("bills", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	statusFlag := fs.String("status", "all", "")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	status, err := billing.ParsePaidStatus(*statusFlag)
	if err != nil {
		return errUsage
	}

	bills, err := c.api.ListBills(ctx, status)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCUSTOMER\tUSAGE\tTOTAL\tSTATUS\tCREATED")
	for _, b := range bills {
		fmt.Fprintf(tw, "%d\t%s\t%d kWh\t%s\t%s\t%s\n",
			b.ID, customerName(b.Customer), b.UsageUnits, money.Money(b.Total),
			statusLabel(b.Paid), b.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func cmdBill(ctx context.Context, c *cli, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	bill, err := c.api.GetBill(ctx, id)
	if err != nil {
		return err
	}
	printBill(c.stdout, bill)
	return nil
}

func cmdCreateBill(ctx context.Context, c *cli, args []string) error {
	fs := flag.NewFlagSet("create-bill", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	customerID := fs.Int64("customer", 0, "")
	usage := fs.Int64("usage", 0, "")
	if err := fs.Parse(args); err != nil || *customerID <= 0 {
		return errUsage
	}

	bill, err := c.api.CreateBill(ctx, *customerID, *usage)
	if err != nil {
		return err
	}
	printBill(c.stdout, bill)
	return nil
}

func cmdTogglePaid(ctx context.Context, c *cli, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	bill, err := c.api.TogglePaid(ctx, id)
	if err != nil {
		return err
	}
	printBill(c.stdout, bill)
	return nil
}

func cmdReceipt(ctx context.Context, c *cli, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	text, err := c.api.Receipt(ctx, id)
	if err != nil {
		return err
	}
	_, err = io.WriteString(c.stdout, text)
	return err
}

func cmdSummary(ctx context.Context, c *cli, _ []string) error {
	s, err := c.api.Summary(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "bills:        %d (%d paid)\n", s.BillCount, s.PaidCount)
	fmt.Fprintf(c.stdout, "total billed: %s\n", money.Money(s.TotalBilled))
	fmt.Fprintf(c.stdout, "total paid:   %s\n", money.Money(s.TotalPaid))
	return nil
}

func cmdCustomers(ctx context.Context, c *cli, _ []string) error {
	list, err := c.api.ListCustomers(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMETER\tTIER\tPHONE")
	for _, cu := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s VA\t%s\n", cu.ID, cu.Name, cu.MeterNumber, cu.VoltageTier, cu.Phone)
	}
	return tw.Flush()
}

func cmdPing(ctx context.Context, c *cli, _ []string) error {
	if err := c.api.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "ok")
	return nil
}

func cmdVersion(_ context.Context, c *cli, _ []string) error {
	fmt.Fprintln(c.stdout, version.Get())
	return nil
}

func printBill(w io.Writer, b *domain.Bill) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%d\n", b.ID)
	fmt.Fprintf(tw, "customer\t%s (#%d)\n", customerName(b.Customer), b.CustomerID)
	fmt.Fprintf(tw, "usage\t%d kWh\n", b.UsageUnits)
	fmt.Fprintf(tw, "rate\t%s\n", money.Money(b.TariffRate))
	fmt.Fprintf(tw, "total\t%s\n", money.Money(b.Total))
	fmt.Fprintf(tw, "status\t%s\n", statusLabel(b.Paid))
	if b.PaidAt != nil {
		fmt.Fprintf(tw, "paid at\t%s\n", b.PaidAt.Local().Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}

func customerName(c *domain.Customer) string {
	if c == nil {
		return "-"
	}
	return c.Name
}

func statusLabel(paid bool) string {
	if paid {
		return "PAID"
	}
	return "UNPAID"
}

func idArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, errUsage
	}
	return id, nil
}
