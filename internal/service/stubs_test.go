package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fabriq/internal/dto"
	"fabriq/internal/model"
	"fabriq/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errNotFound = gorm.ErrRecordNotFound

// ── Product repository stub ──────────────────────────────────────────────────

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, errNotFound
	}
	return p, nil
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := r.products[id]
	if !ok {
		return errNotFound
	}
	p.Active = false
	return nil
}

func (r *stubProductRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductRepo) SaveTx(_ *gorm.DB, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) LastCodeWithPrefix(_ context.Context, prefix string) (string, error) {
	last := ""
	for _, p := range r.products {
		if strings.HasPrefix(p.ProductCode, prefix) && p.ProductCode > last {
			last = p.ProductCode
		}
	}
	return last, nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

func seedProduct(r *stubProductRepo, name, category string, stock, price float64) *model.Product {
	p := &model.Product{
		ID:           uuid.New(),
		Name:         name,
		Category:     category,
		UOM:          "pcs",
		Price:        decimal.NewFromFloat(price),
		CurrentStock: decimal.NewFromFloat(stock),
		Active:       true,
	}
	r.products[p.ID] = p
	return p
}

// ── BOM repository stub ──────────────────────────────────────────────────────

type stubBOMRepo struct {
	boms       map[uuid.UUID]*model.BOM
	fgLines    map[uuid.UUID]*model.FinishedGoodLine
	rawLines   map[uuid.UUID]*model.RawMaterialLine
	scrapLines map[uuid.UUID]*model.ScrapMaterialLine
	codeSeq    int

	listRawErr error // injected failure for ListRawMaterialsByBOM
}

func newStubBOMRepo() *stubBOMRepo {
	return &stubBOMRepo{
		boms:       make(map[uuid.UUID]*model.BOM),
		fgLines:    make(map[uuid.UUID]*model.FinishedGoodLine),
		rawLines:   make(map[uuid.UUID]*model.RawMaterialLine),
		scrapLines: make(map[uuid.UUID]*model.ScrapMaterialLine),
	}
}

func (r *stubBOMRepo) FindByID(_ context.Context, id uuid.UUID) (*model.BOM, error) {
	b, ok := r.boms[id]
	if !ok {
		return nil, errNotFound
	}
	return b, nil
}

func (r *stubBOMRepo) ListApproved(_ context.Context, _ dto.BOMFilter) ([]model.BOM, error) {
	var out []model.BOM
	for _, b := range r.boms {
		if b.Approved {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *stubBOMRepo) ListUnapproved(_ context.Context) ([]model.BOM, error) {
	var out []model.BOM
	for _, b := range r.boms {
		if !b.Approved {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *stubBOMRepo) ListByFinishedProduct(_ context.Context, productID uuid.UUID) ([]model.BOM, error) {
	var out []model.BOM
	for _, b := range r.boms {
		if b.FinishedGood != nil && b.FinishedGood.ItemID == productID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *stubBOMRepo) FindLatestApprovedByFinishedProduct(_ context.Context, productID uuid.UUID) (*model.BOM, error) {
	var latest *model.BOM
	for _, b := range r.boms {
		if !b.Approved || b.FinishedGood == nil || b.FinishedGood.ItemID != productID {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}
	if latest == nil {
		return nil, errNotFound
	}
	return latest, nil
}

func (r *stubBOMRepo) CreateTx(_ *gorm.DB, b *model.BOM) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	r.boms[b.ID] = b
	return nil
}

func (r *stubBOMRepo) SaveTx(_ *gorm.DB, b *model.BOM) error {
	r.boms[b.ID] = b
	return nil
}

func (r *stubBOMRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.boms, id)
	return nil
}

func (r *stubBOMRepo) CreateFinishedGoodTx(_ *gorm.DB, l *model.FinishedGoodLine) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	r.fgLines[l.ID] = &cp
	return nil
}

func (r *stubBOMRepo) SaveFinishedGoodTx(_ *gorm.DB, l *model.FinishedGoodLine) error {
	cp := *l
	r.fgLines[l.ID] = &cp
	return nil
}

func (r *stubBOMRepo) DeleteFinishedGoodTx(_ *gorm.DB, bomID uuid.UUID) error {
	for id, l := range r.fgLines {
		if l.BOMID == bomID {
			delete(r.fgLines, id)
		}
	}
	return nil
}

func (r *stubBOMRepo) CreateRawMaterialTx(_ *gorm.DB, l *model.RawMaterialLine) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	r.rawLines[l.ID] = &cp
	return nil
}

func (r *stubBOMRepo) SaveRawMaterialTx(_ *gorm.DB, l *model.RawMaterialLine) error {
	cp := *l
	r.rawLines[l.ID] = &cp
	return nil
}

func (r *stubBOMRepo) DeleteRawMaterialsTx(_ *gorm.DB, bomID uuid.UUID) error {
	for id, l := range r.rawLines {
		if l.BOMID == bomID {
			delete(r.rawLines, id)
		}
	}
	return nil
}

func (r *stubBOMRepo) CreateScrapMaterialTx(_ *gorm.DB, l *model.ScrapMaterialLine) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	r.scrapLines[l.ID] = &cp
	return nil
}

func (r *stubBOMRepo) SaveScrapMaterialTx(_ *gorm.DB, l *model.ScrapMaterialLine) error {
	cp := *l
	r.scrapLines[l.ID] = &cp
	return nil
}

func (r *stubBOMRepo) DeleteScrapMaterialsTx(_ *gorm.DB, bomID uuid.UUID) error {
	for id, l := range r.scrapLines {
		if l.BOMID == bomID {
			delete(r.scrapLines, id)
		}
	}
	return nil
}

func (r *stubBOMRepo) FindRawMaterialByID(_ context.Context, id uuid.UUID) (*model.RawMaterialLine, error) {
	l, ok := r.rawLines[id]
	if !ok {
		return nil, errNotFound
	}
	return l, nil
}

func (r *stubBOMRepo) FindScrapMaterialByID(_ context.Context, id uuid.UUID) (*model.ScrapMaterialLine, error) {
	l, ok := r.scrapLines[id]
	if !ok {
		return nil, errNotFound
	}
	return l, nil
}

func (r *stubBOMRepo) ListRawMaterialsByBOM(_ context.Context, bomID uuid.UUID) ([]model.RawMaterialLine, error) {
	if r.listRawErr != nil {
		return nil, r.listRawErr
	}
	var out []model.RawMaterialLine
	for _, l := range r.rawLines {
		if l.BOMID == bomID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *stubBOMRepo) ListUnapprovedRawMaterials(_ context.Context, byInventory bool) ([]model.RawMaterialLine, error) {
	var out []model.RawMaterialLine
	for _, l := range r.rawLines {
		if byInventory && !l.ApprovedByInventory {
			out = append(out, *l)
		}
		if !byInventory && !l.ApprovedByAdmin {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *stubBOMRepo) SaveRawMaterial(_ context.Context, l *model.RawMaterialLine) error {
	cp := *l
	r.rawLines[l.ID] = &cp
	return nil
}

func (r *stubBOMRepo) NextBOMCode(_ *gorm.DB) (string, error) {
	r.codeSeq++
	return fmt.Sprintf("BOM%03d", r.codeSeq), nil
}

func (r *stubBOMRepo) DB() *gorm.DB { return nil }

var _ repository.BOMRepository = (*stubBOMRepo)(nil)

// ── Shortage repository stub ─────────────────────────────────────────────────

type stubShortageRepo struct {
	rows map[string]model.InventoryShortage
}

func newStubShortageRepo() *stubShortageRepo {
	return &stubShortageRepo{rows: make(map[string]model.InventoryShortage)}
}

func shortageKey(bomID, lineID uuid.UUID) string {
	return bomID.String() + "/" + lineID.String()
}

func (r *stubShortageRepo) UpsertTx(_ *gorm.DB, s *model.InventoryShortage) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.rows[shortageKey(s.BOMID, s.RawMaterialLineID)] = *s
	return nil
}

func (r *stubShortageRepo) DeleteByLineTx(_ *gorm.DB, bomID, lineID uuid.UUID) error {
	delete(r.rows, shortageKey(bomID, lineID))
	return nil
}

func (r *stubShortageRepo) DeleteByBOMTx(_ *gorm.DB, bomID uuid.UUID) error {
	for k, row := range r.rows {
		if row.BOMID == bomID {
			delete(r.rows, k)
		}
	}
	return nil
}

func (r *stubShortageRepo) List(_ context.Context, _, _ int) ([]model.InventoryShortage, error) {
	var out []model.InventoryShortage
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *stubShortageRepo) ListByBOM(_ context.Context, bomID uuid.UUID) ([]model.InventoryShortage, error) {
	var out []model.InventoryShortage
	for _, row := range r.rows {
		if row.BOMID == bomID {
			out = append(out, row)
		}
	}
	return out, nil
}

var _ repository.ShortageRepository = (*stubShortageRepo)(nil)

// ── Production repository stub ───────────────────────────────────────────────

type stubProductionRepo struct {
	processes map[uuid.UUID]*model.ProductionProcess

	findErr error // injected failure for FindByID
}

func newStubProductionRepo() *stubProductionRepo {
	return &stubProductionRepo{processes: make(map[uuid.UUID]*model.ProductionProcess)}
}

func (r *stubProductionRepo) CreateTx(_ *gorm.DB, p *model.ProductionProcess) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.processes[p.ID] = p
	return nil
}

func (r *stubProductionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ProductionProcess, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	p, ok := r.processes[id]
	if !ok {
		return nil, errNotFound
	}
	return p, nil
}

func (r *stubProductionRepo) Save(_ context.Context, p *model.ProductionProcess) error {
	r.processes[p.ID] = p
	return nil
}

func (r *stubProductionRepo) SaveTx(_ *gorm.DB, p *model.ProductionProcess) error {
	r.processes[p.ID] = p
	return nil
}

func (r *stubProductionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.processes, id)
	return nil
}

func (r *stubProductionRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.processes, id)
	return nil
}

func (r *stubProductionRepo) List(_ context.Context) ([]model.ProductionProcess, error) {
	var out []model.ProductionProcess
	for _, p := range r.processes {
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubProductionRepo) DB() *gorm.DB { return nil }

var _ repository.ProductionRepository = (*stubProductionRepo)(nil)

// ── Stock movement repository stub ───────────────────────────────────────────

type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) ListByProduct(_ context.Context, productID uuid.UUID, _, _ int) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubMovementRepo) List(_ context.Context, _, _ int) ([]model.StockMovement, error) {
	return r.movements, nil
}

func (r *stubMovementRepo) countByType(t string) int {
	n := 0
	for _, m := range r.movements {
		if m.Type == t {
			n++
		}
	}
	return n
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// ── Dispatch repository stub ─────────────────────────────────────────────────

type stubDispatchRepo struct {
	dispatches map[uuid.UUID]*model.Dispatch
}

func newStubDispatchRepo() *stubDispatchRepo {
	return &stubDispatchRepo{dispatches: make(map[uuid.UUID]*model.Dispatch)}
}

func (r *stubDispatchRepo) CreateTx(_ *gorm.DB, d *model.Dispatch) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	r.dispatches[d.ID] = d
	return nil
}

func (r *stubDispatchRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Dispatch, error) {
	d, ok := r.dispatches[id]
	if !ok {
		return nil, errNotFound
	}
	return d, nil
}

func (r *stubDispatchRepo) FindByProcessID(_ context.Context, processID uuid.UUID) (*model.Dispatch, error) {
	for _, d := range r.dispatches {
		if d.ProductionProcessID != nil && *d.ProductionProcessID == processID {
			return d, nil
		}
	}
	return nil, errNotFound
}

func (r *stubDispatchRepo) FindBySaleID(_ context.Context, saleID uuid.UUID) (*model.Dispatch, error) {
	for _, d := range r.dispatches {
		if d.SaleID != nil && *d.SaleID == saleID {
			return d, nil
		}
	}
	return nil, errNotFound
}

func (r *stubDispatchRepo) Save(_ context.Context, d *model.Dispatch) error {
	r.dispatches[d.ID] = d
	return nil
}

func (r *stubDispatchRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.dispatches, id)
	return nil
}

func (r *stubDispatchRepo) List(_ context.Context) ([]model.Dispatch, error) {
	var out []model.Dispatch
	for _, d := range r.dispatches {
		out = append(out, *d)
	}
	return out, nil
}

func (r *stubDispatchRepo) DB() *gorm.DB { return nil }

var _ repository.DispatchRepository = (*stubDispatchRepo)(nil)

// ── Party repository stub ────────────────────────────────────────────────────

type stubPartyRepo struct {
	parties map[uuid.UUID]*model.Party
}

func newStubPartyRepo() *stubPartyRepo {
	return &stubPartyRepo{parties: make(map[uuid.UUID]*model.Party)}
}

func (r *stubPartyRepo) Create(_ context.Context, p *model.Party) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.parties[p.ID] = p
	return nil
}

func (r *stubPartyRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Party, error) {
	p, ok := r.parties[id]
	if !ok {
		return nil, errNotFound
	}
	return p, nil
}

func (r *stubPartyRepo) FindByEmailAndType(_ context.Context, email, partyType string) (*model.Party, error) {
	for _, p := range r.parties {
		if p.Email == email && p.Type == partyType {
			return p, nil
		}
	}
	return nil, errNotFound
}

func (r *stubPartyRepo) List(_ context.Context, filter dto.PartyFilter) ([]model.Party, int64, error) {
	var out []model.Party
	for _, p := range r.parties {
		if filter.Type == "" || p.Type == filter.Type {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubPartyRepo) Update(_ context.Context, p *model.Party) error {
	r.parties[p.ID] = p
	return nil
}

func (r *stubPartyRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.parties, id)
	return nil
}

var _ repository.PartyRepository = (*stubPartyRepo)(nil)

// ── Purchase order repository stub ───────────────────────────────────────────

type stubPORepo struct {
	orders map[uuid.UUID]*model.PurchaseOrder
	seq    int
}

func newStubPORepo() *stubPORepo {
	return &stubPORepo{orders: make(map[uuid.UUID]*model.PurchaseOrder)}
}

func (r *stubPORepo) CreateTx(_ *gorm.DB, po *model.PurchaseOrder) error {
	if po.ID == uuid.Nil {
		po.ID = uuid.New()
	}
	for i := range po.Items {
		if po.Items[i].ID == uuid.Nil {
			po.Items[i].ID = uuid.New()
		}
		po.Items[i].PurchaseOrderID = po.ID
	}
	r.orders[po.ID] = po
	return nil
}

func (r *stubPORepo) FindByID(_ context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	po, ok := r.orders[id]
	if !ok {
		return nil, errNotFound
	}
	return po, nil
}

func (r *stubPORepo) List(_ context.Context, filter dto.POFilter) ([]model.PurchaseOrder, int64, error) {
	var out []model.PurchaseOrder
	for _, po := range r.orders {
		if filter.Status == "" || po.Status == filter.Status {
			out = append(out, *po)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubPORepo) Save(_ context.Context, po *model.PurchaseOrder) error {
	r.orders[po.ID] = po
	return nil
}

func (r *stubPORepo) NextPONumber(_ *gorm.DB) (string, error) {
	r.seq++
	return fmt.Sprintf("PO%05d", r.seq), nil
}

func (r *stubPORepo) DB() *gorm.DB { return nil }

var _ repository.PurchaseOrderRepository = (*stubPORepo)(nil)

// ── User repository stub ─────────────────────────────────────────────────────

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return errors.New("duplicate key")
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username && u.Active {
			return u, nil
		}
	}
	return nil, errNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errNotFound
	}
	return u, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return errNotFound
	}
	u.Active = false
	return nil
}

func (r *stubUserRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return errNotFound
	}
	u.Active = true
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)
