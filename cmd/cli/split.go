package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/gosplit/internal/adapter/http/dto"
	"github.com/iho/gosplit/internal/domain"
	"github.com/iho/gosplit/internal/usecase"
)

type splitFlags struct {
	participants []string
	deliveryFee  string
	discount     string
}

func (f *splitFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.participants, "participant", "p", nil, "Participant spend as NAME=AMOUNT (repeatable)")
	cmd.Flags().StringVar(&f.deliveryFee, "delivery-fee", "0", "Delivery fee for the whole order")
	cmd.Flags().StringVar(&f.discount, "discount", "0", "Total discount for the whole order")
}

func (f *splitFlags) request() (*dto.SplitRequest, error) {
	req := &dto.SplitRequest{}

	for _, p := range f.participants {
		i := strings.LastIndex(p, "=")
		if i <= 0 {
			return nil, fmt.Errorf("participant %q must look like NAME=AMOUNT", p)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(p[i+1:]))
		if err != nil {
			return nil, fmt.Errorf("participant %q: invalid amount: %w", p, err)
		}
		req.Participants = append(req.Participants, dto.ParticipantRequest{Name: p[:i], Amount: amount})
	}

	var err error
	if req.DeliveryFee, err = decimal.NewFromString(f.deliveryFee); err != nil {
		return nil, fmt.Errorf("invalid --delivery-fee: %w", err)
	}
	if req.TotalDiscount, err = decimal.NewFromString(f.discount); err != nil {
		return nil, fmt.Errorf("invalid --discount: %w", err)
	}

	return req, nil
}

func newSplitCmd(opts *rootOptions) *cobra.Command {
	splitCmd := &cobra.Command{
		Use:   "split",
		Short: "Split operations",
	}

	splitCmd.AddCommand(
		newSplitPreviewCmd(opts),
		newSplitCreateCmd(opts),
		newSplitGetCmd(opts),
		newSplitPayCmd(opts),
	)

	return splitCmd
}

func newSplitPreviewCmd(opts *rootOptions) *cobra.Command {
	var (
		flags         splitFlags
		rounding      string
		unit          string
		deterministic bool
	)

	cmd := &cobra.Command{
		Use:     "preview",
		Short:   "Compute a split locally without contacting the server",
		Example: `  gosplit-cli split preview -p A=30000 -p B=20000 --delivery-fee 10000 --discount 5000`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}

			strategy, err := domain.ParseRoundingStrategy(rounding)
			if err != nil {
				return err
			}
			roundingUnit, err := decimal.NewFromString(unit)
			if err != nil || !roundingUnit.IsPositive() {
				return fmt.Errorf("invalid --unit %q", unit)
			}

			engineOpts := []domain.EngineOption{
				domain.WithRounding(strategy),
				domain.WithRoundingUnit(roundingUnit),
			}
			if deterministic {
				engineOpts = append(engineOpts, domain.WithDriftSelector(domain.NewSequenceSelector(0)))
			}

			uc := usecase.NewSplitUseCase(nil, nil, nil, nil, domain.NewAllocationEngine(engineOpts...), nil)
			result, err := uc.PreviewSplit(cmd.Context(), req.ToUseCaseInput())
			if err != nil {
				return err
			}

			return render(cmd, opts, dto.AllocationFromDomain(result))
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&rounding, "rounding", string(domain.RoundingNearest), "Rounding strategy: nearest or up")
	cmd.Flags().StringVar(&unit, "unit", domain.DefaultRoundingUnit.String(), "Rounding unit")
	cmd.Flags().BoolVar(&deterministic, "deterministic", false, "Always give leftover drift to the first participant")

	return cmd
}

func newSplitCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		flags          splitFlags
		idempotencyKey string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Compute and store a split on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}

			headers := map[string]string{}
			if idempotencyKey != "" {
				headers[idempotencyKeyHeader] = idempotencyKey
			}

			var resp dto.SplitResponse
			err = withTimeout(cmd, opts, func(ctx context.Context, c *apiClient) error {
				return c.do(ctx, http.MethodPost, "/api/v1/splits", nil, headers, req, &resp)
			})
			if err != nil {
				return err
			}

			return render(cmd, opts, &resp)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key so retries do not create duplicates")

	return cmd
}

func newSplitGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a stored split",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.SplitResponse
			err := withTimeout(cmd, opts, func(ctx context.Context, c *apiClient) error {
				return c.do(ctx, http.MethodGet, "/api/v1/splits/"+url.PathEscape(args[0]), nil, nil, nil, &resp)
			})
			if err != nil {
				return err
			}

			return render(cmd, opts, &resp)
		},
	}
}

func newSplitPayCmd(opts *rootOptions) *cobra.Command {
	var unpaid bool

	cmd := &cobra.Command{
		Use:   "pay ID PARTICIPANT",
		Short: "Mark a participant of a split as paid (or unpaid with --unpaid)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			isPaid := !unpaid
			req := dto.UpdatePaymentRequest{ParticipantName: args[1], IsPaid: &isPaid}

			var resp dto.SplitResponse
			err := withTimeout(cmd, opts, func(ctx context.Context, c *apiClient) error {
				return c.do(ctx, http.MethodPatch, "/api/v1/splits/"+url.PathEscape(args[0])+"/payments", nil, nil, req, &resp)
			})
			if err != nil {
				return err
			}

			return render(cmd, opts, &resp)
		},
	}

	cmd.Flags().BoolVar(&unpaid, "unpaid", false, "Mark the participant as unpaid")

	return cmd
}

func withTimeout(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, c *apiClient) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	return fn(ctx, newAPIClient(opts.baseURL, opts.timeout))
}
