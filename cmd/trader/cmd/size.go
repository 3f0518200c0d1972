package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxsettle/market"
	"github.com/rustyeddy/fxsettle/pricing"
	"github.com/rustyeddy/fxsettle/risk"
	"github.com/rustyeddy/fxsettle/sim"
)

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Size a live trade from broker account figures",
	Long: `Size works out the margin and units for the next trade on a live
account: margin held by unfilled orders and the reserve are taken out of
the available margin first, then the units are capped so a stop-out costs
at most risk.max_risk_pct of the balance.

Instruments quoted outside the account currency need --rate, the ask of
their conversion pair.

Example:
  trader size -i NAS100_USD --balance 10000 --available 8000 --price 13250 --rate 1.37 --stop 35`,
	RunE: runSize,
}

var (
	szInstrument   string
	szBalance      float64
	szAvailable    float64
	szPendingUnits float64
	szPrice        float64
	szRate         float64
	szStop         float64
)

func init() {
	rootCmd.AddCommand(sizeCmd)

	sizeCmd.Flags().StringVarP(&szInstrument, "instrument", "i", "EUR_GBP", "instrument symbol")
	sizeCmd.Flags().Float64Var(&szBalance, "balance", 0, "account balance")
	sizeCmd.Flags().Float64Var(&szAvailable, "available", 0, "margin available")
	sizeCmd.Flags().Float64Var(&szPendingUnits, "pending-units", 0, "units across unfilled orders")
	sizeCmd.Flags().Float64Var(&szPrice, "price", 0, "entry price")
	sizeCmd.Flags().Float64Var(&szRate, "rate", 0, "ask of the conversion pair")
	sizeCmd.Flags().Float64Var(&szStop, "stop", 0, "stop distance in price units")
	sizeCmd.MarkFlagRequired("balance")
	sizeCmd.MarkFlagRequired("available")
	sizeCmd.MarkFlagRequired("price")
	sizeCmd.MarkFlagRequired("stop")
}

func runSize(cmd *cobra.Command, args []string) error {
	inst, err := market.DefaultCatalog().Get(szInstrument)
	if err != nil {
		return err
	}

	store := pricing.NewTickStore()
	if inst.Conversion != nil {
		if szRate <= 0 {
			return fmt.Errorf("%s converts via %s: --rate is required", inst.Symbol, inst.Conversion.Symbol)
		}
		store.Set(pricing.Tick{Instrument: inst.Conversion.Symbol, Bid: szRate, Ask: szRate})
	}
	rates := pricing.NewRetrying(store, log.WithComponent("pricing"))
	rate, err := market.ConversionRate(cmd.Context(), rates, inst)
	if err != nil {
		return err
	}

	conv := market.NewConverter(cfg.Account.Currency)
	f, err := conv.Factors(inst, szPrice, rate)
	if err != nil {
		return err
	}

	snap := sim.BrokerSnapshot{Balance: szBalance, MarginAvailable: szAvailable, PendingUnits: szPendingUnits}
	policy := cfg.LivePolicy()
	margin := sim.SizeFromSnapshot(snap, cfg.Account.EquitySplit, policy, inst, f)
	units := market.MarginToUnits(inst, margin, f)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "instrument:  %s\n", inst.Symbol)
	fmt.Fprintf(out, "margin:      %.2f %s\n", margin, cfg.Account.Currency)
	if margin == 0 {
		fmt.Fprintf(out, "no trade: headroom below %.2f\n", policy.MinTradeMargin)
		return nil
	}

	d, err := risk.NewManager(cfg.RiskPolicy(), inst, conv, rate).Evaluate(szBalance, units, szPrice, szStop)
	if err != nil {
		return err
	}
	for _, v := range d.Violations {
		fmt.Fprintf(out, "violation:   %s %s\n", v.Code, v.Msg)
	}
	if !d.Allowed {
		return nil
	}
	fmt.Fprintf(out, "units:       %.0f\n", d.Units)
	fmt.Fprintf(out, "risk:        %.2f of max %.2f\n", d.PlannedRisk, d.MaxRisk)
	if d.Capped {
		fmt.Fprintf(out, "capped from: %.0f units\n", d.ProposedUnits)
	}
	fmt.Fprintf(out, "pip value:   %.2f\n", market.PipValuePerUnit(inst, d.Units, f))
	return nil
}
