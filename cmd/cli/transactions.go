package main

import (
	"fmt"
	"strings"

	"github.com/amirasaad/paydesk/pkg/domain/transaction"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type transactionsFlags struct {
	Status string
	Type   string
	Search string
	Limit  int
	Offset int
}

func newTransactionsCmd(e *env) *cobra.Command {
	flags := &transactionsFlags{}
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List transactions, newest first",
		PreRunE: e.requireSession,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := e.ws.Transactions.List(cmd.Context(), transaction.Filter{
				Status: transaction.Status(flags.Status),
				Type:   transaction.Type(flags.Type),
				Search: flags.Search,
				Limit:  flags.Limit,
				Offset: flags.Offset,
			})
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}
			rows := pterm.TableData{{"ID", "Date", "Type", "Status", "Amount", "Reference", "Description"}}
			for _, t := range page.Transactions {
				rows = append(rows, []string{
					t.ID,
					t.CreatedAt.Format("2006-01-02 15:04"),
					string(t.Type),
					colorStatus(string(t.Status)),
					money(t.Amount, t.Currency),
					t.Reference,
					t.Description,
				})
			}
			if err := table(e.out, "Transactions", rows); err != nil {
				return err
			}
			more := ""
			if page.HasMore {
				more = ", more with --offset"
			}
			fmt.Fprint(e.out, pterm.Info.Sprintfln("Showing %d of %d%s", len(page.Transactions), page.Total, more))
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.Status, "status", "s", "", "Filter by status (pending, processing, success, failed, cancelled)")
	cmd.Flags().StringVarP(&flags.Type, "type", "t", "", "Filter by type (payment, payout, transfer, refund)")
	cmd.Flags().StringVarP(&flags.Search, "search", "q", "", "Match reference, description or recipient")
	cmd.Flags().IntVarP(&flags.Limit, "limit", "n", 20, "Page size, 0 for all")
	cmd.Flags().IntVar(&flags.Offset, "offset", 0, "Page offset")
	return cmd
}

func newWalletCmd(e *env) *cobra.Command {
	var currencies []string
	cmd := &cobra.Command{
		Use:     "wallet",
		Short:   "Show wallet balances and transaction statistics",
		PreRunE: e.requireSession,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows := pterm.TableData{{"Currency", "Available", "Pending", "Total"}}
			for _, c := range currencies {
				c = strings.ToUpper(c)
				w, err := e.ws.Transactions.WalletBalance(cmd.Context(), c)
				if err != nil {
					return fmt.Errorf("failed to compute %s balance: %w", c, err)
				}
				rows = append(rows, []string{
					w.Currency,
					good.Sprint(money(w.Available, w.Currency)),
					waiting.Sprint(money(w.Pending, w.Currency)),
					money(w.Total, w.Currency),
				})
			}
			if err := table(e.out, "Wallet", rows); err != nil {
				return err
			}

			stats, err := e.ws.Transactions.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to compute statistics: %w", err)
			}
			return table(e.out, "Statistics", pterm.TableData{
				{"Total", "Successful", "Pending", "Failed", "Volume", "Average"},
				{
					fmt.Sprint(stats.TotalTransactions),
					good.Sprint(stats.SuccessfulTransactions),
					waiting.Sprint(stats.PendingTransactions),
					bad.Sprint(stats.FailedTransactions),
					stats.TotalVolume.StringFixed(2),
					stats.AverageTransaction.StringFixed(2),
				},
			})
		},
	}
	cmd.Flags().StringSliceVarP(&currencies, "currency", "c", []string{"ETB", "USD"}, "Currencies to show")
	return cmd
}
