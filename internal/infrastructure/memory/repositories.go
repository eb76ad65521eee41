package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/distribucion-api/internal/domain"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
	"github.com/jhoicas/distribucion-api/internal/domain/repository"
)

var (
	_ repository.RootAllocationRepository  = (*rootRepo)(nil)
	_ repository.ChildAllocationRepository = (*childRepo)(nil)
	_ repository.StockRecordRepository     = (*stockRepo)(nil)
	_ repository.WithdrawalRepository      = (*withdrawalRepo)(nil)
	_ repository.DeliveryRepository        = (*deliveryRepo)(nil)
	_ repository.SourceBatchRepository     = (*batchRepo)(nil)
)

// ── Asignaciones raíz ────────────────────────────────────────────────────────

type rootRepo struct{ view }

func (r *rootRepo) Create(ctx context.Context, root *entity.RootAllocation) error {
	st, done, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	if _, ok := st.roots[root.ID]; ok {
		return domain.ErrDuplicate
	}
	put(st, st.roots, root.ID, *root)
	return nil
}

func (r *rootRepo) GetByID(ctx context.Context, id string) (*entity.RootAllocation, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	root, ok := st.roots[id]
	if !ok {
		return nil, nil
	}
	return &root, nil
}

// GetForUpdate en memoria la transacción ya es exclusiva.
func (r *rootRepo) GetForUpdate(ctx context.Context, id string) (*entity.RootAllocation, error) {
	return r.GetByID(ctx, id)
}

func (r *rootRepo) UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	st, done, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	root, ok := st.roots[id]
	if !ok {
		return domain.ErrNotFound
	}
	root.Status = status
	root.UpdatedAt = updatedAt
	put(st, st.roots, id, root)
	return nil
}

func (r *rootRepo) UpdateRemarks(ctx context.Context, id, remarks string, updatedAt time.Time) error {
	st, done, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	root, ok := st.roots[id]
	if !ok {
		return domain.ErrNotFound
	}
	root.Remarks = remarks
	root.UpdatedAt = updatedAt
	put(st, st.roots, id, root)
	return nil
}

func (r *rootRepo) Delete(ctx context.Context, id string) error {
	st, done, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	del(st, st.roots, id)
	return nil
}

func (r *rootRepo) ListByDistributor(ctx context.Context, distributorID string, limit, offset int) ([]*entity.RootAllocation, error) {
	return r.list(ctx, func(root *entity.RootAllocation) bool { return root.DistributorID == distributorID }, limit, offset)
}

func (r *rootRepo) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*entity.RootAllocation, error) {
	return r.list(ctx, func(root *entity.RootAllocation) bool { return root.RecipientID == recipientID }, limit, offset)
}

func (r *rootRepo) list(ctx context.Context, match func(*entity.RootAllocation) bool, limit, offset int) ([]*entity.RootAllocation, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	var out []*entity.RootAllocation
	for _, v := range st.roots {
		root := v
		if match(&root) {
			out = append(out, &root)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

// ── Sub-asignaciones ─────────────────────────────────────────────────────────

type childRepo struct{ view }

func copyChild(c entity.ChildAllocation) entity.ChildAllocation {
	if c.Evidence != nil {
		ev := *c.Evidence
		ev.ProofURIs = append([]string(nil), c.Evidence.ProofURIs...)
		c.Evidence = &ev
	}
	return c
}

func (r *childRepo) Create(ctx context.Context, child *entity.ChildAllocation) error {
	st, done, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	if _, ok := st.roots[child.ParentID]; !ok {
		return domain.ErrNotFound // FK
	}
	put(st, st.children, child.ID, copyChild(*child))
	return nil
}

func (r *childRepo) GetByID(ctx context.Context, id string) (*entity.ChildAllocation, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	c, ok := st.children[id]
	if !ok {
		return nil, nil
	}
	c = copyChild(c)
	return &c, nil
}

func (r *childRepo) GetForUpdate(ctx context.Context, id string) (*entity.ChildAllocation, error) {
	return r.GetByID(ctx, id)
}

func (r *childRepo) SumLiveByParent(ctx context.Context, parentID string) (quantity.Quantity, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return quantity.Zero, err
	}
	defer done()
	sum := quantity.Zero
	for _, c := range st.children {
		if c.ParentID == parentID {
			sum = sum.Add(c.Quantity)
		}
	}
	return sum, nil
}

func (r *childRepo) CountByParent(ctx context.Context, parentID string) (int, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return 0, err
	}
	defer done()
	n := 0
	for _, c := range st.children {
		if c.ParentID == parentID {
			n++
		}
	}
	return n, nil
}

func (r *childRepo) ListByParent(ctx context.Context, parentID string) ([]*entity.ChildAllocation, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	var out []*entity.ChildAllocation
	for _, v := range st.children {
		if v.ParentID == parentID {
			c := copyChild(v)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *childRepo) UpdateLifecycle(ctx context.Context, child *entity.ChildAllocation) error {
	st, done, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	cur, ok := st.children[child.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.LifecycleState = child.LifecycleState
	cur.Evidence = child.Evidence
	cur.UpdatedAt = child.UpdatedAt
	put(st, st.children, child.ID, copyChild(cur))
	return nil
}

func (r *childRepo) Delete(ctx context.Context, id string) error {
	st, done, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	del(st, st.children, id)
	return nil
}

// ── Stock ────────────────────────────────────────────────────────────────────

type stockRepo struct{ view }

func (r *stockRepo) Create(ctx context.Context, stock *entity.StockRecord) error {
	st, done, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	if _, ok := st.stockByLot[stock.SourceBatchID]; ok {
		return domain.ErrAlreadyAdmitted
	}
	put(st, st.stock, stock.ID, *stock)
	put(st, st.stockByLot, stock.SourceBatchID, stock.ID)
	return nil
}

func (r *stockRepo) GetByID(ctx context.Context, id string) (*entity.StockRecord, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	s, ok := st.stock[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *stockRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.GetByID(ctx, id)
}

// Decrement test-and-decrement bajo el mismo bloqueo.
func (r *stockRepo) Decrement(ctx context.Context, id string, qty quantity.Quantity, at time.Time) (*entity.StockRecord, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	s, ok := st.stock[id]
	if !ok || s.Status == entity.StockStatusWithdrawn || s.RemainingQuantity.LessThan(qty) {
		return nil, nil
	}
	remaining, err := s.RemainingQuantity.Sub(qty)
	if err != nil {
		return nil, nil
	}
	s.RemainingQuantity = remaining
	s.UpdatedAt = at
	put(st, st.stock, id, s)
	return &s, nil
}

func (r *stockRepo) Update(ctx context.Context, stock *entity.StockRecord) error {
	st, done, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	cur, ok := st.stock[stock.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.RemainingQuantity = stock.RemainingQuantity
	cur.Status = stock.Status
	cur.WithdrawnReason = stock.WithdrawnReason
	cur.UpdatedAt = stock.UpdatedAt
	put(st, st.stock, stock.ID, cur)
	return nil
}

func (r *stockRepo) Delete(ctx context.Context, id string) error {
	st, done, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	if s, ok := st.stock[id]; ok {
		del(st, st.stockByLot, s.SourceBatchID)
		del(st, st.stock, id)
	}
	return nil
}

func (r *stockRepo) List(ctx context.Context, limit, offset int) ([]*entity.StockRecord, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	out := make([]*entity.StockRecord, 0, len(st.stock))
	for _, v := range st.stock {
		s := v
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

// ── Salidas ──────────────────────────────────────────────────────────────────

type withdrawalRepo struct{ view }

func (r *withdrawalRepo) Create(ctx context.Context, w *entity.Withdrawal) error {
	st, done, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	if _, ok := st.stock[w.StockRecordID]; !ok {
		return domain.ErrNotFound
	}
	put(st, st.withdrawals, w.ID, *w)
	return nil
}

func (r *withdrawalRepo) GetByID(ctx context.Context, id string) (*entity.Withdrawal, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	w, ok := st.withdrawals[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *withdrawalRepo) ListByStock(ctx context.Context, stockRecordID string) ([]*entity.Withdrawal, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	var out []*entity.Withdrawal
	for _, v := range st.withdrawals {
		if v.StockRecordID == stockRecordID {
			w := v
			out = append(out, &w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *withdrawalRepo) CountByStock(ctx context.Context, stockRecordID string) (int, error) {
	list, err := r.ListByStock(ctx, stockRecordID)
	return len(list), err
}

// ── Entregas ─────────────────────────────────────────────────────────────────

type deliveryRepo struct{ view }

func (r *deliveryRepo) Create(ctx context.Context, d *entity.UnitDeliveryRecord) error {
	st, done, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	if _, ok := st.deliveryByW[d.SourceWithdrawalID]; ok {
		return domain.ErrDuplicate
	}
	put(st, st.deliveries, d.ID, *d)
	put(st, st.deliveryByW, d.SourceWithdrawalID, d.ID)
	return nil
}

func (r *deliveryRepo) GetByID(ctx context.Context, id string) (*entity.UnitDeliveryRecord, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	d, ok := st.deliveries[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *deliveryRepo) GetForUpdate(ctx context.Context, id string) (*entity.UnitDeliveryRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *deliveryRepo) Update(ctx context.Context, d *entity.UnitDeliveryRecord) error {
	st, done, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	if _, ok := st.deliveries[d.ID]; !ok {
		return domain.ErrNotFound
	}
	put(st, st.deliveries, d.ID, *d)
	return nil
}

// ── Lotes de origen ──────────────────────────────────────────────────────────

type batchRepo struct{ view }

func (r *batchRepo) GetByID(ctx context.Context, id string) (*entity.SourceBatch, error) {
	st, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	b, ok := st.batches[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *batchRepo) Upsert(ctx context.Context, b *entity.SourceBatch) error {
	st, done, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer done()
	if cur, ok := st.batches[b.ID]; ok {
		b.CreatedAt = cur.CreatedAt
	}
	put(st, st.batches, b.ID, *b)
	return nil
}
