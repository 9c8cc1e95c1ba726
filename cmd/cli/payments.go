package main

import (
	"fmt"

	"github.com/amirasaad/paydesk/pkg/service/payment"
	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newBanksCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "banks",
		Short: "List banks transfers can be sent to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			banks, err := e.ws.Banks.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list banks: %w", err)
			}
			rows := pterm.TableData{{"Code", "Name", "Currency", "Account length", "Mobile money"}}
			for _, b := range banks {
				mobile := ""
				if b.IsMobileMoney {
					mobile = "yes"
				}
				length := ""
				if b.AcctLength > 0 {
					length = fmt.Sprint(b.AcctLength)
				}
				rows = append(rows, []string{b.Code, b.Name, b.Currency, length, mobile})
			}
			return table(e.out, "Banks", rows)
		},
	}
}

type payFlags struct {
	Amount      string
	Currency    string
	Email       string
	FirstName   string
	LastName    string
	Phone       string
	Description string
}

func newPayCmd(e *env) *cobra.Command {
	flags := &payFlags{}
	cmd := &cobra.Command{
		Use:     "pay",
		Short:   "Start a hosted checkout payment",
		PreRunE: e.requireSession,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amount, err := decimal.NewFromString(flags.Amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q", flags.Amount)
			}
			req := payment.Request{
				Amount:      amount,
				Currency:    flags.Currency,
				Email:       flags.Email,
				FirstName:   flags.FirstName,
				LastName:    flags.LastName,
				PhoneNumber: flags.Phone,
				Description: flags.Description,
			}
			if me, ok := e.ws.Auth.Me(); ok {
				req.UserID = me.ID
				if req.Email == "" {
					req.Email = me.Email
				}
			}
			res, err := e.ws.Payments.Initialize(cmd.Context(), req)
			if err != nil {
				return err
			}
			success(e.out, "Payment %s of %s created", res.TxRef, money(amount, flags.Currency))
			fmt.Fprint(e.out, pterm.Info.Sprintfln("Checkout: %s", res.CheckoutURL))
			fmt.Fprint(e.out, pterm.Info.Sprintfln("Then run: paydesk verify transaction %s", res.TxRef))
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.Amount, "amount", "a", "", "Amount to charge")
	cmd.Flags().StringVarP(&flags.Currency, "currency", "c", "ETB", "Currency (ETB, USD)")
	cmd.Flags().StringVarP(&flags.Email, "email", "e", "", "Payer email, defaults to the signed-in user")
	cmd.Flags().StringVar(&flags.FirstName, "first-name", "", "Payer first name")
	cmd.Flags().StringVar(&flags.LastName, "last-name", "", "Payer last name")
	cmd.Flags().StringVar(&flags.Phone, "phone", "", "Payer phone number")
	cmd.Flags().StringVarP(&flags.Description, "description", "d", "", "Shown on the checkout page")
	for _, name := range []string{"amount", "first-name", "last-name"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
