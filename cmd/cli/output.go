package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/gosplit/internal/adapter/http/dto"
)

func render(cmd *cobra.Command, opts *rootOptions, v any) error {
	out := cmd.OutOrStdout()
	if opts.output == "json" {
		return printJSON(out, v)
	}

	switch r := v.(type) {
	case *dto.AllocationResponse:
		printAllocation(out, r)
	case *dto.SplitResponse:
		printSplit(out, r)
	case *dto.HistoryResponse:
		printHistory(out, r)
	default:
		return printJSON(out, v)
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printParticipants(out io.Writer, participants []dto.ParticipantResponse, withPaid bool) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if withPaid {
		fmt.Fprintln(tw, "NAME\tAMOUNT\tDISCOUNT\tDELIVERY\tOWED\tPAID")
	} else {
		fmt.Fprintln(tw, "NAME\tAMOUNT\tDISCOUNT\tDELIVERY\tOWED")
	}
	for _, p := range participants {
		if withPaid {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", truncate(p.Name, 24), p.Amount, p.DiscountShare, p.DeliveryShare, p.FinalOwed, yesNo(p.Paid))
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", truncate(p.Name, 24), p.Amount, p.DiscountShare, p.DeliveryShare, p.FinalOwed)
		}
	}
	tw.Flush()
}

func printAllocation(out io.Writer, r *dto.AllocationResponse) {
	printParticipants(out, r.Participants, false)
	fmt.Fprintf(out, "\nSubtotal: %s  Delivery: %s  Discount: %s\n", r.Subtotal, r.DeliveryFee, r.TotalDiscount)
	fmt.Fprintf(out, "Total before: %s  Total after: %s  Owed to service: %s\n", r.TotalBefore, r.TotalAfter, r.TotalToDeliveryService)
	fmt.Fprintf(out, "Rounding: %s  Adjustments: %d\n", r.Rounding, r.Adjustments)
}

func printSplit(out io.Writer, r *dto.SplitResponse) {
	fmt.Fprintf(out, "Split %s (created %s)\n\n", r.ID, r.CreatedAt.Format(time.RFC3339))
	printParticipants(out, r.Participants, true)
	fmt.Fprintf(out, "\nTotal owed: %s  Paid: %s  Remaining: %s\n", r.TotalOwed, r.TotalPaid, r.RemainingAmount)
}

func printHistory(out io.Writer, r *dto.HistoryResponse) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tPARTICIPANTS\tSUBTOTAL\tREMAINING")
	for _, s := range r.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.ID, s.CreatedAt.Format(time.RFC3339), len(s.Participants), s.Subtotal, s.RemainingAmount)
	}
	tw.Flush()
	fmt.Fprintf(out, "\nPage %d of %d (%d total)\n", r.Page, r.TotalPages, r.Total)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
