package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newRemindersCommand(e *env) *cobra.Command {
	var unpaidOnly bool

	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "List upcoming payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			views := e.svc.Reminders(cmd.Context(), localUser, e.now)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDUE\tIN\tTITLE\tAMOUNT\tSOURCE\tPAID")
			for _, v := range views {
				if unpaidOnly && v.Paid {
					continue
				}
				paid := ""
				if v.Paid {
					paid = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%dd\t%s\t%s\t%s\t%s\n",
					v.ID, v.DueDate.Format("2006-01-02"), v.DaysUntilDue, v.Title, v.Amount.StringFixed(2), v.SourceType, paid)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&unpaidOnly, "unpaid", false, "hide reminders already marked paid")

	return cmd
}

func newPayCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "pay <reminder-id>",
		Short: "Mark a reminder as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := e.svc.MarkPaid(cmd.Context(), localUser, args[0], e.now)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s paid at %s\n", rec.ReminderID, rec.PaidAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newUnpayCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "unpay <reminder-id>",
		Short: "Remove the paid mark of a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.svc.RevertPaid(cmd.Context(), localUser, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reverted %s\n", args[0])
			return nil
		},
	}
}

func newCleanupCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Drop expired paid marks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			removed, err := e.svc.CleanupExpired(cmd.Context(), localUser, e.now)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired paid marks\n", removed)
			return nil
		},
	}
}

func newCustomCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "custom",
		Short: "Manage custom reminders",
	}
	cmd.AddCommand(newCustomAddCommand(e), newCustomRemoveCommand(e))
	return cmd
}

func newCustomAddCommand(e *env) *cobra.Command {
	var (
		title  string
		amount string
		due    string
		window int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a one-off reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			dueDate, err := parseDate(due)
			if err != nil {
				return err
			}
			c, err := e.svc.CreateCustomReminder(cmd.Context(), localUser, title, amt, dueDate, window)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", c.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "reminder title (required)")
	cmd.Flags().StringVar(&amount, "amount", "0", "amount due")
	cmd.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD (required)")
	cmd.Flags().IntVar(&window, "window", 8, "days before the due date to start reminding")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("due")

	return cmd
}

func newCustomRemoveCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <reminder-id>",
		Short: "Delete a custom reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.svc.DeleteCustomReminder(cmd.Context(), localUser, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}
