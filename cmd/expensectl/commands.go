package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"expenses/internal/client"
	"expenses/internal/core"
	"expenses/internal/tui"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			expenses, err := c.List(cmd.Context()).Unwrap()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), expenses)
			}
			renderTable(cmd.OutOrStdout(), expenses)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var in core.ExpenseInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			created, err := c.Create(cmd.Context(), in).Unwrap()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added expense %d: %s %s (%s)\n",
				created.ID, created.Name, created.Amount, created.Category)
			return nil
		},
	}
	expenseFlags(cmd, &in, core.DefaultCategory)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var in core.ExpenseInput
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Replace every field of an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			updated, err := c.Update(cmd.Context(), id, in).Unwrap()
			if err != nil {
				return notFound(err, id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated expense %d: %s %s (%s)\n",
				updated.ID, updated.Name, updated.Amount, updated.Category)
			return nil
		},
	}
	expenseFlags(cmd, &in, "")
	for _, name := range []string{"name", "amount", "category"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete an expense",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context(), id).Err; err != nil {
				return notFound(err, id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted expense %d\n", id)
			return nil
		},
	}
}

func newUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive expense table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), c)
		},
	}
}

func expenseFlags(cmd *cobra.Command, in *core.ExpenseInput, category string) {
	cmd.Flags().StringVar(&in.Name, "name", "", "expense name")
	cmd.Flags().StringVar(&in.Amount, "amount", "", "amount, e.g. 3.50")
	cmd.Flags().StringVar(&in.Category, "category", category, "category")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid expense id %q", s)
	}
	return id, nil
}

func notFound(err error, id int64) error {
	if client.IsNotFound(err) {
		return fmt.Errorf("expense %d not found", id)
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(w io.Writer, expenses []core.Expense) {
	if len(expenses) == 0 {
		fmt.Fprintln(w, "No expenses.")
		return
	}

	rows := make([][]string, len(expenses))
	for i, e := range expenses {
		rows[i] = []string{strconv.FormatInt(e.ID, 10), e.Name, e.Amount.String(), e.Category}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "AMOUNT", "CATEGORY").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}
