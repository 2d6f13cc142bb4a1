package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTopLimit caps the best-seller ranking when no limit is given.
const DefaultTopLimit = 10

// Service computes read-only reports. Identical in-flight requests are
// collapsed so a dashboard refresh storm runs each aggregation once.
type Service struct {
	repo  Repository
	group singleflight.Group
}

// NewService constructs the reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func rangeKey(name string, r Range) string {
	return fmt.Sprintf("%s:%d:%d", name, r.From.Unix(), r.To.Unix())
}

func (s *Service) Summary(ctx context.Context, r Range) (Summary, error) {
	v, err, _ := s.group.Do(rangeKey("summary", r), func() (any, error) {
		return s.repo.Summary(ctx, r)
	})
	if err != nil {
		return Summary{}, err
	}
	return v.(Summary), nil
}

func (s *Service) ProfitLoss(ctx context.Context, r Range) (ProfitLoss, error) {
	v, err, _ := s.group.Do(rangeKey("profit-loss", r), func() (any, error) {
		summary, err := s.repo.Summary(ctx, r)
		if err != nil {
			return nil, err
		}
		expenses, err := s.repo.ExpenseTotal(ctx, r)
		if err != nil {
			return nil, err
		}
		payroll, err := s.repo.PayrollTotal(ctx, r)
		if err != nil {
			return nil, err
		}
		return ProfitLoss{
			Summary:      summary,
			ExpenseTotal: expenses,
			PayrollTotal: payroll,
			NetProfit:    summary.GrossProfit - expenses - payroll,
		}, nil
	})
	if err != nil {
		return ProfitLoss{}, err
	}
	return v.(ProfitLoss), nil
}

func (s *Service) TopProducts(ctx context.Context, r Range, limit int) ([]TopProduct, error) {
	if limit < 1 || limit > 100 {
		limit = DefaultTopLimit
	}
	key := fmt.Sprintf("%s:%d", rangeKey("top-products", r), limit)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.repo.TopProducts(ctx, r, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]TopProduct), nil
}

func (s *Service) Receivables(ctx context.Context) (Receivables, error) {
	v, err, _ := s.group.Do("receivables", func() (any, error) {
		return s.repo.Receivables(ctx)
	})
	if err != nil {
		return Receivables{}, err
	}
	return v.(Receivables), nil
}

// Export renders the sales of a range as an xlsx workbook.
func (s *Service) Export(ctx context.Context, r Range) ([]byte, string, error) {
	rows, err := s.repo.ExportRows(ctx, r)
	if err != nil {
		return nil, "", err
	}
	data, err := buildWorkbook(rows)
	if err != nil {
		return nil, "", err
	}
	name := fmt.Sprintf("penjualan-%s.xlsx", time.Now().Format("20060102-150405"))
	return data, name, nil
}
