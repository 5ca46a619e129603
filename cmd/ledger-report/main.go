// Command ledger-report prints one month's category summary and the
// trailing monthly series from a moneytracker database.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"
	_ "time/tzdata"

	"moneytracker/internal/cli"
	"moneytracker/internal/config"
	"moneytracker/internal/core"
	"moneytracker/internal/log"
	"moneytracker/internal/services"
	"moneytracker/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	monthFlag := flag.String("month", "", "month to summarise as YYYY-MM (default: current month)")
	months := flag.Int("months", cfg.TrendMonths, "number of months in the trailing series")
	dbPath := flag.String("db", cfg.SQLiteDBPath, "path to the SQLite database")
	tz := flag.String("tz", cfg.Timezone, "IANA time zone for month boundaries (default: local)")
	flag.Parse()

	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentReport)

	cfg.Timezone = *tz
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid time zone", log.FieldError, err)
		os.Exit(2)
	}
	cal := core.NewCalendar(loc)

	month := core.MonthOfDate(cal.Truncate(time.Now()))
	if *monthFlag != "" {
		if month, err = core.ParseYearMonth(*monthFlag); err != nil {
			logger.Error("Invalid month", log.FieldError, err)
			os.Exit(2)
		}
	}

	ctx := context.Background()
	db := cli.InitStore(ctx, logger, *dbPath)
	defer db.Close()

	ledger := services.NewLedgerService(storage.NewTransactionStore(db, cal), storage.NewCategoryStore(db), cal)
	if err := report(ctx, os.Stdout, ledger, month, *months); err != nil {
		logger.Error("Report failed", log.FieldError, err, log.FieldMonth, month.String())
		db.Close()
		os.Exit(1)
	}
}

// maxMonths bounds -months the same way the HTTP series endpoint bounds count.
const maxMonths = 240

type reporter interface {
	MonthlySummary(ctx context.Context, month core.YearMonth) ([]core.MonthlyCategorySummary, error)
	MonthlySeries(ctx context.Context, end core.YearMonth, monthsBack int) ([]core.MonthlySeriesPoint, error)
}

func report(ctx context.Context, out io.Writer, r reporter, month core.YearMonth, months int) error {
	if months < 1 || months > maxMonths {
		return fmt.Errorf("%w: months must be between 1 and %d", core.ErrValidation, maxMonths)
	}
	summary, err := r.MonthlySummary(ctx, month)
	if err != nil {
		return err
	}
	series, err := r.MonthlySeries(ctx, month, months)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(out, "Summary for %s\n", month)
	fmt.Fprintln(tw, "Category\tIncome\tExpense\tNet\t")
	for _, row := range summary {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			row.CategoryName, row.Income.StringFixed(2), row.Expense.StringFixed(2), row.Net().StringFixed(2))
	}
	if len(summary) == 0 {
		fmt.Fprintln(tw, "(no transactions)\t\t\t\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nLast %d months\n", months)
	fmt.Fprintln(tw, "Month\tIncome\tExpense\tNet\t")
	for _, p := range series {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			p.Month, p.Income.StringFixed(2), p.Expense.StringFixed(2), p.Net().StringFixed(2))
	}
	return tw.Flush()
}
