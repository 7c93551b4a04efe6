package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iho/gosplit/internal/adapter/http/dto"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Stored split history",
	}

	historyCmd.AddCommand(newHistoryListCmd(opts), newHistoryClearCmd(opts))

	return historyCmd
}

func newHistoryListCmd(opts *rootOptions) *cobra.Command {
	var (
		name, startDate, endDate, sortBy, order string
		page, limit                             int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored splits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			setIf(q, "name", name)
			setIf(q, "start_date", startDate)
			setIf(q, "end_date", endDate)
			setIf(q, "sort_by", sortBy)
			setIf(q, "order", order)
			if page > 0 {
				q.Set("page", strconv.Itoa(page))
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}

			var resp dto.HistoryResponse
			err := withTimeout(cmd, opts, func(ctx context.Context, c *apiClient) error {
				return c.do(ctx, http.MethodGet, "/api/v1/history", q, nil, nil, &resp)
			})
			if err != nil {
				return err
			}

			return render(cmd, opts, &resp)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Only splits with a participant whose name contains this text")
	cmd.Flags().StringVar(&startDate, "start", "", "Created on or after (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&endDate, "end", "", "Created on or before (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&sortBy, "sort-by", "", "createdAt, updatedAt or subtotal")
	cmd.Flags().StringVar(&order, "order", "", "asc or desc")
	cmd.Flags().IntVar(&page, "page", 0, "Page number, starting at 1")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size (max 100)")

	return cmd
}

func newHistoryClearCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored split",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear history without --yes")
			}

			var resp dto.ClearHistoryResponse
			err := withTimeout(cmd, opts, func(ctx context.Context, c *apiClient) error {
				return c.do(ctx, http.MethodDelete, "/api/v1/history", nil, nil, nil, &resp)
			})
			if err != nil {
				return err
			}

			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d split(s)\n", resp.Deleted)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")

	return cmd
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
