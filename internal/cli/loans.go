package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Dan9191/loan-reminders/internal/amortization"
	"github.com/Dan9191/loan-reminders/internal/payoff"
)

func newBalanceCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [loan-id...]",
		Short: "Show outstanding balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids := args
			if len(ids) == 0 {
				loans, err := e.store.GetLoans(ctx, localUser)
				if err != nil {
					return err
				}
				for _, loan := range loans {
					ids = append(ids, loan.ID)
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LOAN\tBALANCE\tPAYMENTS\tNEXT DUE")
			for _, id := range ids {
				res, err := e.svc.LoanBalance(ctx, localUser, id, e.now)
				switch {
				case errors.Is(err, amortization.ErrInvalidLoanTerms):
					fmt.Fprintf(w, "%s\tinvalid terms\t-\t-\n", id)
					continue
				case err != nil:
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", id, res.Balance.StringFixed(2), res.PaymentsMade, res.NextDueDate.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}

func newPlanCommand(e *env) *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Rank active loans for payoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := payoff.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			entries, err := e.svc.Plan(cmd.Context(), localUser, s, e.now)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tLOAN\tNAME\tRATE\tBALANCE\tPROGRESS")
			for _, p := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%.2f%%\t%s\t%.1f%%\n",
					p.Rank, p.LoanID, p.Name, p.AnnualRatePercent, p.OutstandingBalance.StringFixed(2), p.ProgressPercent)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", string(payoff.Avalanche), "avalanche or snowball")

	return cmd
}

func newPatternsCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List recurring obligations found in the transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			found, err := e.svc.Patterns(cmd.Context(), localUser)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tDESCRIPTION\tFREQUENCY\tAMOUNT\tLAST SEEN\tCONFIDENCE")
			for _, p := range found {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\n",
					p.Category, p.Description, p.Frequency, p.AverageAmount.StringFixed(2), p.LastOccurrence.Format("2006-01-02"), p.Confidence)
			}
			return w.Flush()
		},
	}
}
