package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
	"github.com/jhoicas/distribucion-api/internal/domain/repository"
)

var _ repository.ReportingRepository = (*ReportingRepo)(nil)

// ReportingRepo agregados de solo lectura sobre el estado publicado.
type ReportingRepo struct {
	view
}

func (r *ReportingRepo) RootSummary(ctx context.Context, rootID string) (*repository.RootSummaryResult, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	root, ok := st.roots[rootID]
	if !ok {
		return nil, nil
	}
	res := &repository.RootSummaryResult{
		RootID:        root.ID,
		ResourceKind:  root.ResourceKind,
		Status:        root.Status,
		Quantity:      root.Quantity,
		Resubdivided:  quantity.Zero,
		CountsByState: map[string]int{},
	}
	for _, c := range st.children {
		if c.ParentID != rootID {
			continue
		}
		res.Resubdivided = res.Resubdivided.Add(c.Quantity)
		res.ChildCount++
		res.CountsByState[c.LifecycleState]++
	}
	return res, nil
}

func (r *ReportingRepo) DistributorTotals(ctx context.Context, distributorID string) ([]repository.KindTotalsResult, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	byKind := map[string]*repository.KindTotalsResult{}
	kindOf := map[string]string{} // root id -> kind
	for _, root := range st.roots {
		if root.DistributorID != distributorID || root.IsCancelled() {
			continue
		}
		t, ok := byKind[root.ResourceKind]
		if !ok {
			t = &repository.KindTotalsResult{ResourceKind: root.ResourceKind, Granted: quantity.Zero, Resubdivided: quantity.Zero, Planted: quantity.Zero}
			byKind[root.ResourceKind] = t
		}
		t.RootCount++
		t.Granted = t.Granted.Add(root.Quantity)
		kindOf[root.ID] = root.ResourceKind
	}
	for _, c := range st.children {
		kind, ok := kindOf[c.ParentID]
		if !ok {
			continue
		}
		t := byKind[kind]
		t.Resubdivided = t.Resubdivided.Add(c.Quantity)
		if c.LifecycleState == entity.ChildStatePlanted {
			t.Planted = t.Planted.Add(c.Quantity)
		}
	}
	out := make([]repository.KindTotalsResult, 0, len(byKind))
	for _, t := range byKind {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResourceKind < out[j].ResourceKind })
	return out, nil
}

func (r *ReportingRepo) StockTotals(ctx context.Context) ([]repository.StockTotalsResult, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	byKind := map[string]*repository.StockTotalsResult{}
	kindOf := map[string]string{}
	for _, s := range st.stock {
		t, ok := byKind[s.ResourceKind]
		if !ok {
			t = &repository.StockTotalsResult{ResourceKind: s.ResourceKind, Initial: quantity.Zero, Remaining: quantity.Zero}
			byKind[s.ResourceKind] = t
		}
		t.RecordCount++
		t.Initial = t.Initial.Add(s.InitialQuantity)
		t.Remaining = t.Remaining.Add(s.RemainingQuantity)
		kindOf[s.ID] = s.ResourceKind
	}
	for _, w := range st.withdrawals {
		if kind, ok := kindOf[w.StockRecordID]; ok {
			byKind[kind].WithdrawalCount++
		}
	}
	out := make([]repository.StockTotalsResult, 0, len(byKind))
	for _, t := range byKind {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResourceKind < out[j].ResourceKind })
	return out, nil
}

func (r *ReportingRepo) DeliveryCounts(ctx context.Context) ([]repository.DeliveryCountResult, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	type key struct{ state, payment string }
	counts := map[key]int{}
	for _, d := range st.deliveries {
		counts[key{d.State, d.PaymentState}]++
	}
	out := make([]repository.DeliveryCountResult, 0, len(counts))
	for k, n := range counts {
		out = append(out, repository.DeliveryCountResult{State: k.state, PaymentState: k.payment, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].State != out[j].State {
			return out[i].State < out[j].State
		}
		return out[i].PaymentState < out[j].PaymentState
	})
	return out, nil
}
