package main

import (
	"fmt"

	"github.com/amirasaad/paydesk/pkg/domain/transfer"
	"github.com/amirasaad/paydesk/pkg/service/verification"
	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newTransfersCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "transfers",
		Short:   "List bank transfers",
		PreRunE: e.requireSession,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := e.ws.Transfers.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list transfers: %w", err)
			}
			rows := pterm.TableData{{"ID", "Date", "Recipient", "Bank", "Account", "Amount", "Status", "Reference"}}
			for _, t := range list {
				rows = append(rows, []string{
					t.ID,
					t.CreatedAt.Format("2006-01-02 15:04"),
					t.Recipient,
					t.BankCode,
					t.AccountNumber,
					money(t.Amount, t.Currency),
					colorStatus(string(t.Status)),
					t.Reference,
				})
			}
			return table(e.out, "Transfers", rows)
		},
	}
}

type transferFlags struct {
	Amount    string
	Currency  string
	Recipient string
	Account   string
	Bank      string
	Reason    string
}

func newTransferCmd(e *env) *cobra.Command {
	flags := &transferFlags{}
	cmd := &cobra.Command{
		Use:     "transfer",
		Short:   "Send money to a bank account",
		PreRunE: e.requireSession,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amount, err := decimal.NewFromString(flags.Amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q", flags.Amount)
			}
			t, err := e.ws.Transfers.Initiate(cmd.Context(), transfer.Request{
				Amount:        amount,
				Currency:      flags.Currency,
				Recipient:     flags.Recipient,
				AccountNumber: flags.Account,
				BankCode:      flags.Bank,
				Reason:        flags.Reason,
			})
			if err != nil {
				return err
			}
			success(e.out, "Transfer %s of %s to %s is %s", t.Reference, money(t.Amount, t.Currency), t.Recipient, colorStatus(string(t.Status)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.Amount, "amount", "a", "", "Amount to send")
	cmd.Flags().StringVarP(&flags.Currency, "currency", "c", "ETB", "Currency (ETB, USD)")
	cmd.Flags().StringVarP(&flags.Recipient, "recipient", "r", "", "Account holder name")
	cmd.Flags().StringVar(&flags.Account, "account", "", "Account number")
	cmd.Flags().StringVarP(&flags.Bank, "bank", "b", "", "Bank code, see `paydesk banks`")
	cmd.Flags().StringVar(&flags.Reason, "reason", "", "Optional reason")
	for _, name := range []string{"amount", "recipient", "account", "bank"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

type verifyFlags struct {
	Amount   string
	Currency string
}

func (f *verifyFlags) check(ref string) (verification.Check, error) {
	c := verification.Check{Reference: ref, Currency: f.Currency}
	if f.Amount != "" {
		amount, err := decimal.NewFromString(f.Amount)
		if err != nil {
			return c, fmt.Errorf("invalid amount %q", f.Amount)
		}
		c.Amount = &amount
	}
	return c, nil
}

func newVerifyCmd(e *env) *cobra.Command {
	flags := &verifyFlags{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Ask the gateway for the status of a reference and record it",
	}
	cmd.PersistentFlags().StringVar(&flags.Amount, "amount", "", "Expected amount")
	cmd.PersistentFlags().StringVar(&flags.Currency, "currency", "", "Expected currency")

	cmd.AddCommand(&cobra.Command{
		Use:     "transaction <tx_ref>",
		Short:   "Verify a payment",
		Args:    cobra.ExactArgs(1),
		PreRunE: e.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.check(args[0])
			if err != nil {
				return err
			}
			res, err := e.ws.Verification.VerifyTransaction(cmd.Context(), c)
			if err != nil {
				return err
			}
			report(e, res)
			return nil
		},
	}, &cobra.Command{
		Use:     "transfer <reference>",
		Short:   "Verify a bank transfer",
		Args:    cobra.ExactArgs(1),
		PreRunE: e.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.check(args[0])
			if err != nil {
				return err
			}
			res, err := e.ws.Verification.VerifyTransfer(cmd.Context(), c)
			if err != nil {
				return err
			}
			report(e, res)
			return nil
		},
	})
	return cmd
}

func report(e *env, res verification.Result) {
	switch {
	case !res.Valid:
		warning(e.out, "%s rejected: %s", res.Reference, res.Reason)
	case !res.Tracked:
		warning(e.out, "%s is %s at the gateway but not tracked locally", res.Reference, colorStatus(res.Status))
	case res.Updated:
		success(e.out, "%s is now %s", res.Reference, colorStatus(res.Status))
	default:
		success(e.out, "%s is still %s", res.Reference, colorStatus(res.Status))
	}
}
