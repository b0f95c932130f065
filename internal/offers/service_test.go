package offers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/booktrade/backend/pkg/db/models"
	"github.com/booktrade/backend/pkg/enums"
	pkgerrors "github.com/booktrade/backend/pkg/errors"
	"github.com/booktrade/backend/pkg/outbox"
	"github.com/booktrade/backend/pkg/pagination"
)

type fakeRepository struct {
	posts  map[uuid.UUID]*models.SellPost
	offers map[uuid.UUID]*models.Offer

	// onLockPost runs once when the post row lock is taken, standing in
	// for a competing transaction that committed first.
	onLockPost func()
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		posts:  map[uuid.UUID]*models.SellPost{},
		offers: map[uuid.UUID]*models.Offer{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	offer.CreatedAt = time.Now()
	f.offers[offer.ID] = offer
	return offer, nil
}

func (f *fakeRepository) FindOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	offer, ok := f.offers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *offer
	return &copied, nil
}

func (f *fakeRepository) FindSellPost(ctx context.Context, id uuid.UUID) (*models.SellPost, error) {
	post, ok := f.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *post
	return &copied, nil
}

func (f *fakeRepository) FindSellPostForUpdate(ctx context.Context, id uuid.UUID) (*models.SellPost, error) {
	if f.onLockPost != nil {
		hook := f.onLockPost
		f.onLockPost = nil
		hook()
	}
	return f.FindSellPost(ctx, id)
}

func (f *fakeRepository) FindActiveOfferForBuyer(ctx context.Context, sellPostID, buyerID uuid.UUID) (*models.Offer, error) {
	for _, offer := range f.offers {
		if offer.SellPostID == sellPostID && offer.BuyerID == buyerID && offer.Status.IsActive() {
			copied := *offer
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindActiveOffersForPost(ctx context.Context, sellPostID uuid.UUID) ([]models.Offer, error) {
	var rows []models.Offer
	for _, offer := range f.offers {
		if offer.SellPostID == sellPostID && offer.Status.IsActive() {
			rows = append(rows, *offer)
		}
	}
	return rows, nil
}

func (f *fakeRepository) UpdateOffer(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	offer, ok := f.offers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["status"]; ok {
		offer.Status = v.(enums.OfferStatus)
	}
	if v, ok := updates["awaiting_party"]; ok {
		offer.AwaitingParty = v.(enums.OfferParty)
	}
	if v, ok := updates["counter_price"]; ok {
		price := v.(decimal.Decimal)
		offer.CounterPrice = &price
	}
	if v, ok := updates["response_message"]; ok {
		msg := v.(string)
		offer.ResponseMessage = &msg
	}
	if v, ok := updates["responded_at"]; ok {
		at := v.(time.Time)
		offer.RespondedAt = &at
	}
	return nil
}

func (f *fakeRepository) UpdateSellPost(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	post, ok := f.posts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["status"]; ok {
		post.Status = v.(enums.SellPostStatus)
	}
	if v, ok := updates["sold_to_id"]; ok {
		buyer := v.(uuid.UUID)
		post.SoldToID = &buyer
	}
	if v, ok := updates["sold_price"]; ok {
		price := v.(decimal.Decimal)
		post.SoldPrice = &price
	}
	if v, ok := updates["sold_at"]; ok {
		at := v.(time.Time)
		post.SoldAt = &at
	}
	return nil
}

func (f *fakeRepository) ListOffersForPost(ctx context.Context, sellPostID uuid.UUID, params pagination.Params) (*OfferList, error) {
	var rows []models.Offer
	for _, offer := range f.offers {
		if offer.SellPostID == sellPostID {
			rows = append(rows, *offer)
		}
	}
	return &OfferList{Items: rows}, nil
}

func (f *fakeRepository) ListOffersForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OfferList, error) {
	var rows []models.Offer
	for _, offer := range f.offers {
		if offer.BuyerID == buyerID {
			rows = append(rows, *offer)
		}
	}
	return &OfferList{Items: rows}, nil
}

func (f *fakeRepository) ListOffersForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*OfferList, error) {
	var rows []models.Offer
	for _, offer := range f.offers {
		post, ok := f.posts[offer.SellPostID]
		if ok && post.SellerID == sellerID {
			rows = append(rows, *offer)
		}
	}
	return &OfferList{Items: rows}, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) countByType(eventType enums.OutboxEventType) int {
	n := 0
	for _, e := range f.events {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T, repo Repository, sink *fakeOutbox) Service {
	t.Helper()
	svc, err := NewService(repo, fakeTxRunner{}, sink)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

func seedPost(repo *fakeRepository, sellerID uuid.UUID, price string, negotiable bool) *models.SellPost {
	post := &models.SellPost{
		ID:         uuid.New(),
		SellerID:   sellerID,
		Title:      "Calculus textbook",
		Price:      decimal.RequireFromString(price),
		Condition:  enums.ItemConditionGood,
		Negotiable: negotiable,
		Status:     enums.SellPostStatusAvailable,
	}
	repo.posts[post.ID] = post
	return post
}

func seedOffer(repo *fakeRepository, post *models.SellPost, buyerID uuid.UUID, price string) *models.Offer {
	offer := &models.Offer{
		ID:            uuid.New(),
		SellPostID:    post.ID,
		BuyerID:       buyerID,
		OfferedPrice:  decimal.RequireFromString(price),
		Status:        enums.OfferStatusPending,
		AwaitingParty: enums.OfferPartySeller,
		CreatedAt:     time.Now(),
	}
	repo.offers[offer.ID] = offer
	return offer
}

func errCode(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	return pkgerrors.As(err).Code()
}

func TestSubmitCreatesPendingOffer(t *testing.T) {
	repo := newFakeRepository()
	sink := &fakeOutbox{}
	seller := uuid.New()
	buyer := uuid.New()
	post := seedPost(repo, seller, "40.00", true)

	svc := newTestService(t, repo, sink)
	offer, err := svc.Submit(context.Background(), SubmitInput{
		SellPostID: post.ID,
		BuyerID:    buyer,
		Price:      decimal.RequireFromString("30.00"),
	})
	if err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}
	if offer.Status != enums.OfferStatusPending {
		t.Fatalf("expected PENDING, got %s", offer.Status)
	}
	if offer.AwaitingParty != enums.OfferPartySeller {
		t.Fatalf("expected offer awaiting seller, got %s", offer.AwaitingParty)
	}
	if sink.countByType(enums.OutboxEventOfferSubmitted) != 1 {
		t.Fatal("expected offer.submitted event")
	}
}

func TestSubmitRejectsOwnPost(t *testing.T) {
	repo := newFakeRepository()
	seller := uuid.New()
	post := seedPost(repo, seller, "40.00", true)

	svc := newTestService(t, repo, &fakeOutbox{})
	_, err := svc.Submit(context.Background(), SubmitInput{
		SellPostID: post.ID,
		BuyerID:    seller,
		Price:      decimal.RequireFromString("30.00"),
	})
	if code := errCode(t, err); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}
}

func TestSubmitRejectsNonOfferablePost(t *testing.T) {
	repo := newFakeRepository()
	post := seedPost(repo, uuid.New(), "40.00", true)
	post.Status = enums.SellPostStatusSold

	svc := newTestService(t, repo, &fakeOutbox{})
	_, err := svc.Submit(context.Background(), SubmitInput{
		SellPostID: post.ID,
		BuyerID:    uuid.New(),
		Price:      decimal.RequireFromString("30.00"),
	})
	if code := errCode(t, err); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", code)
	}
}

func TestSubmitNonNegotiableRequiresListPrice(t *testing.T) {
	repo := newFakeRepository()
	post := seedPost(repo, uuid.New(), "40.00", false)

	svc := newTestService(t, repo, &fakeOutbox{})
	_, err := svc.Submit(context.Background(), SubmitInput{
		SellPostID: post.ID,
		BuyerID:    uuid.New(),
		Price:      decimal.RequireFromString("35.00"),
	})
	if code := errCode(t, err); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", code)
	}

	if _, err := svc.Submit(context.Background(), SubmitInput{
		SellPostID: post.ID,
		BuyerID:    uuid.New(),
		Price:      decimal.RequireFromString("40.00"),
	}); err != nil {
		t.Fatalf("full-price offer should pass: %v", err)
	}
}

func TestSubmitRejectsDuplicateActiveOffer(t *testing.T) {
	repo := newFakeRepository()
	buyer := uuid.New()
	post := seedPost(repo, uuid.New(), "40.00", true)
	seedOffer(repo, post, buyer, "30.00")

	svc := newTestService(t, repo, &fakeOutbox{})
	_, err := svc.Submit(context.Background(), SubmitInput{
		SellPostID: post.ID,
		BuyerID:    buyer,
		Price:      decimal.RequireFromString("32.00"),
	})
	if code := errCode(t, err); code != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %s", code)
	}
}

func TestAcceptCascadesSiblingsAndSellsPost(t *testing.T) {
	repo := newFakeRepository()
	sink := &fakeOutbox{}
	seller := uuid.New()
	post := seedPost(repo, seller, "40.00", true)
	winner := seedOffer(repo, post, uuid.New(), "38.00")
	loserA := seedOffer(repo, post, uuid.New(), "25.00")
	loserB := seedOffer(repo, post, uuid.New(), "30.00")

	svc := newTestService(t, repo, sink)
	updated, err := svc.Respond(context.Background(), RespondInput{
		OfferID:  winner.ID,
		ActorID:  seller,
		Decision: enums.OfferDecisionAccept,
	})
	if err != nil {
		t.Fatalf("unexpected respond error: %v", err)
	}
	if updated.Status != enums.OfferStatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", updated.Status)
	}

	if repo.offers[loserA.ID].Status != enums.OfferStatusRejected {
		t.Fatalf("sibling A should be rejected, got %s", repo.offers[loserA.ID].Status)
	}
	if repo.offers[loserB.ID].Status != enums.OfferStatusRejected {
		t.Fatalf("sibling B should be rejected, got %s", repo.offers[loserB.ID].Status)
	}
	if msg := repo.offers[loserA.ID].ResponseMessage; msg == nil || *msg != cascadeRejectMessage {
		t.Fatal("rejected sibling should carry the cascade response message")
	}

	soldPost := repo.posts[post.ID]
	if soldPost.Status != enums.SellPostStatusSold {
		t.Fatalf("post should be SOLD, got %s", soldPost.Status)
	}
	if soldPost.SoldToID == nil || *soldPost.SoldToID != winner.BuyerID {
		t.Fatal("post should record the winning buyer")
	}
	if soldPost.SoldPrice == nil || !soldPost.SoldPrice.Equal(winner.OfferedPrice) {
		t.Fatal("post should record the accepted price")
	}

	if sink.countByType(enums.OutboxEventOfferAccepted) != 1 {
		t.Fatal("expected one offer.accepted event")
	}
	if sink.countByType(enums.OutboxEventOfferRejected) != 2 {
		t.Fatalf("expected two cascade offer.rejected events, got %d", sink.countByType(enums.OutboxEventOfferRejected))
	}
	if sink.countByType(enums.OutboxEventListingSold) != 1 {
		t.Fatal("expected one listing.sold event")
	}
}

func TestRespondRequiresSeller(t *testing.T) {
	repo := newFakeRepository()
	post := seedPost(repo, uuid.New(), "40.00", true)
	offer := seedOffer(repo, post, uuid.New(), "30.00")

	svc := newTestService(t, repo, &fakeOutbox{})
	_, err := svc.Respond(context.Background(), RespondInput{
		OfferID:  offer.ID,
		ActorID:  uuid.New(),
		Decision: enums.OfferDecisionAccept,
	})
	if code := errCode(t, err); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}
}

func TestRespondRejectsResolvedOffer(t *testing.T) {
	repo := newFakeRepository()
	seller := uuid.New()
	post := seedPost(repo, seller, "40.00", true)
	offer := seedOffer(repo, post, uuid.New(), "30.00")
	offer.Status = enums.OfferStatusWithdrawn

	svc := newTestService(t, repo, &fakeOutbox{})
	_, err := svc.Respond(context.Background(), RespondInput{
		OfferID:  offer.ID,
		ActorID:  seller,
		Decision: enums.OfferDecisionAccept,
	})
	if code := errCode(t, err); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", code)
	}
}

func TestCounterMovesOfferToBuyer(t *testing.T) {
	repo := newFakeRepository()
	sink := &fakeOutbox{}
	seller := uuid.New()
	post := seedPost(repo, seller, "40.00", true)
	offer := seedOffer(repo, post, uuid.New(), "30.00")

	counter := decimal.RequireFromString("35.00")
	svc := newTestService(t, repo, sink)
	updated, err := svc.Respond(context.Background(), RespondInput{
		OfferID:      offer.ID,
		ActorID:      seller,
		Decision:     enums.OfferDecisionCounter,
		CounterPrice: &counter,
	})
	if err != nil {
		t.Fatalf("unexpected counter error: %v", err)
	}
	if updated.Status != enums.OfferStatusCountered {
		t.Fatalf("expected COUNTERED, got %s", updated.Status)
	}
	if updated.AwaitingParty != enums.OfferPartyBuyer {
		t.Fatalf("expected offer awaiting buyer, got %s", updated.AwaitingParty)
	}
	if sink.countByType(enums.OutboxEventOfferCountered) != 1 {
		t.Fatal("expected offer.countered event")
	}
}

func TestCounterRequiresNegotiablePost(t *testing.T) {
	repo := newFakeRepository()
	seller := uuid.New()
	post := seedPost(repo, seller, "40.00", false)
	offer := seedOffer(repo, post, uuid.New(), "40.00")

	counter := decimal.RequireFromString("38.00")
	svc := newTestService(t, repo, &fakeOutbox{})
	_, err := svc.Respond(context.Background(), RespondInput{
		OfferID:      offer.ID,
		ActorID:      seller,
		Decision:     enums.OfferDecisionCounter,
		CounterPrice: &counter,
	})
	if code := errCode(t, err); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", code)
	}
}

func TestBuyerAcceptsCounterAtCounterPrice(t *testing.T) {
	repo := newFakeRepository()
	sink := &fakeOutbox{}
	seller := uuid.New()
	buyer := uuid.New()
	post := seedPost(repo, seller, "40.00", true)
	offer := seedOffer(repo, post, buyer, "30.00")
	counter := decimal.RequireFromString("35.00")
	offer.Status = enums.OfferStatusCountered
	offer.AwaitingParty = enums.OfferPartyBuyer
	offer.CounterPrice = &counter

	svc := newTestService(t, repo, sink)
	updated, err := svc.RespondToCounter(context.Background(), CounterResponseInput{
		OfferID:  offer.ID,
		ActorID:  buyer,
		Decision: enums.OfferDecisionAccept,
	})
	if err != nil {
		t.Fatalf("unexpected counter-accept error: %v", err)
	}
	if updated.Status != enums.OfferStatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", updated.Status)
	}
	soldPost := repo.posts[post.ID]
	if soldPost.SoldPrice == nil || !soldPost.SoldPrice.Equal(counter) {
		t.Fatal("sale should close at the counter price")
	}
}

func TestBuyerReCounterFlipsAwaitingToSeller(t *testing.T) {
	repo := newFakeRepository()
	sink := &fakeOutbox{}
	buyer := uuid.New()
	post := seedPost(repo, uuid.New(), "40.00", true)
	offer := seedOffer(repo, post, buyer, "30.00")
	counter := decimal.RequireFromString("35.00")
	offer.Status = enums.OfferStatusCountered
	offer.AwaitingParty = enums.OfferPartyBuyer
	offer.CounterPrice = &counter

	reCounter := decimal.RequireFromString("33.00")
	svc := newTestService(t, repo, sink)
	updated, err := svc.RespondToCounter(context.Background(), CounterResponseInput{
		OfferID:      offer.ID,
		ActorID:      buyer,
		Decision:     enums.OfferDecisionCounter,
		CounterPrice: &reCounter,
	})
	if err != nil {
		t.Fatalf("unexpected re-counter error: %v", err)
	}
	if updated.Status != enums.OfferStatusCountered {
		t.Fatalf("expected COUNTERED, got %s", updated.Status)
	}
	if updated.AwaitingParty != enums.OfferPartySeller {
		t.Fatalf("expected offer awaiting seller, got %s", updated.AwaitingParty)
	}
	if updated.CounterPrice == nil || !updated.CounterPrice.Equal(reCounter) {
		t.Fatal("re-counter should replace the proposed price")
	}
	if sink.countByType(enums.OutboxEventOfferCountered) != 1 {
		t.Fatal("expected offer.countered event")
	}
}

func TestReCounterRequiresPrice(t *testing.T) {
	repo := newFakeRepository()
	buyer := uuid.New()
	post := seedPost(repo, uuid.New(), "40.00", true)
	offer := seedOffer(repo, post, buyer, "30.00")
	counter := decimal.RequireFromString("35.00")
	offer.Status = enums.OfferStatusCountered
	offer.AwaitingParty = enums.OfferPartyBuyer
	offer.CounterPrice = &counter

	svc := newTestService(t, repo, &fakeOutbox{})
	_, err := svc.RespondToCounter(context.Background(), CounterResponseInput{
		OfferID:  offer.ID,
		ActorID:  buyer,
		Decision: enums.OfferDecisionCounter,
	})
	if code := errCode(t, err); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", code)
	}
}

func TestSellerAcceptsReCounterAtLatestPrice(t *testing.T) {
	repo := newFakeRepository()
	sink := &fakeOutbox{}
	seller := uuid.New()
	buyer := uuid.New()
	post := seedPost(repo, seller, "40.00", true)
	offer := seedOffer(repo, post, buyer, "30.00")
	reCounter := decimal.RequireFromString("33.00")
	offer.Status = enums.OfferStatusCountered
	offer.AwaitingParty = enums.OfferPartySeller
	offer.CounterPrice = &reCounter

	svc := newTestService(t, repo, sink)
	updated, err := svc.Respond(context.Background(), RespondInput{
		OfferID:  offer.ID,
		ActorID:  seller,
		Decision: enums.OfferDecisionAccept,
	})
	if err != nil {
		t.Fatalf("unexpected accept error: %v", err)
	}
	if updated.Status != enums.OfferStatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", updated.Status)
	}
	soldPost := repo.posts[post.ID]
	if soldPost.SoldPrice == nil || !soldPost.SoldPrice.Equal(reCounter) {
		t.Fatal("sale should close at the re-countered price")
	}
}

func TestAcceptConflictsWhenPostAlreadySold(t *testing.T) {
	repo := newFakeRepository()
	seller := uuid.New()
	post := seedPost(repo, seller, "40.00", true)
	offer := seedOffer(repo, post, uuid.New(), "30.00")
	post.Status = enums.SellPostStatusSold

	svc := newTestService(t, repo, &fakeOutbox{})
	_, err := svc.Respond(context.Background(), RespondInput{
		OfferID:  offer.ID,
		ActorID:  seller,
		Decision: enums.OfferDecisionAccept,
	})
	if code := errCode(t, err); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", code)
	}
	if repo.offers[offer.ID].Status != enums.OfferStatusPending {
		t.Fatalf("losing accept must not touch the offer, got %s", repo.offers[offer.ID].Status)
	}
}

func TestAcceptLosesToWithdrawCommittedFirst(t *testing.T) {
	repo := newFakeRepository()
	seller := uuid.New()
	post := seedPost(repo, seller, "40.00", true)
	offer := seedOffer(repo, post, uuid.New(), "30.00")

	// The buyer's withdraw commits while the accept waits on the post
	// row lock.
	repo.onLockPost = func() {
		offer.Status = enums.OfferStatusWithdrawn
	}

	svc := newTestService(t, repo, &fakeOutbox{})
	_, err := svc.Respond(context.Background(), RespondInput{
		OfferID:  offer.ID,
		ActorID:  seller,
		Decision: enums.OfferDecisionAccept,
	})
	if code := errCode(t, err); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", code)
	}
	if repo.offers[offer.ID].Status != enums.OfferStatusWithdrawn {
		t.Fatalf("withdrawn offer must stay withdrawn, got %s", repo.offers[offer.ID].Status)
	}
	if repo.posts[post.ID].Status != enums.SellPostStatusAvailable {
		t.Fatalf("post must not sell to a withdrawn offer, got %s", repo.posts[post.ID].Status)
	}
}

func TestWithdrawLosesToAcceptCommittedFirst(t *testing.T) {
	repo := newFakeRepository()
	buyer := uuid.New()
	post := seedPost(repo, uuid.New(), "40.00", true)
	offer := seedOffer(repo, post, buyer, "30.00")

	// The seller's accept commits while the withdraw waits on the post
	// row lock.
	repo.onLockPost = func() {
		offer.Status = enums.OfferStatusAccepted
		post.Status = enums.SellPostStatusSold
	}

	svc := newTestService(t, repo, &fakeOutbox{})
	_, err := svc.Withdraw(context.Background(), WithdrawInput{OfferID: offer.ID, ActorID: buyer})
	if code := errCode(t, err); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", code)
	}
	if repo.offers[offer.ID].Status != enums.OfferStatusAccepted {
		t.Fatalf("accepted offer must stay accepted, got %s", repo.offers[offer.ID].Status)
	}
}

func TestWithdrawPendingOffer(t *testing.T) {
	repo := newFakeRepository()
	sink := &fakeOutbox{}
	buyer := uuid.New()
	post := seedPost(repo, uuid.New(), "40.00", true)
	offer := seedOffer(repo, post, buyer, "30.00")

	svc := newTestService(t, repo, sink)
	updated, err := svc.Withdraw(context.Background(), WithdrawInput{OfferID: offer.ID, ActorID: buyer})
	if err != nil {
		t.Fatalf("unexpected withdraw error: %v", err)
	}
	if updated.Status != enums.OfferStatusWithdrawn {
		t.Fatalf("expected WITHDRAWN, got %s", updated.Status)
	}
	if sink.countByType(enums.OutboxEventOfferWithdrawn) != 1 {
		t.Fatal("expected offer.withdrawn event")
	}
}

func TestWithdrawCounteredOfferDisallowed(t *testing.T) {
	repo := newFakeRepository()
	buyer := uuid.New()
	post := seedPost(repo, uuid.New(), "40.00", true)
	offer := seedOffer(repo, post, buyer, "30.00")
	offer.Status = enums.OfferStatusCountered
	offer.AwaitingParty = enums.OfferPartyBuyer

	svc := newTestService(t, repo, &fakeOutbox{})
	_, err := svc.Withdraw(context.Background(), WithdrawInput{OfferID: offer.ID, ActorID: buyer})
	if code := errCode(t, err); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", code)
	}
}

func TestWithdrawRequiresOwner(t *testing.T) {
	repo := newFakeRepository()
	post := seedPost(repo, uuid.New(), "40.00", true)
	offer := seedOffer(repo, post, uuid.New(), "30.00")

	svc := newTestService(t, repo, &fakeOutbox{})
	_, err := svc.Withdraw(context.Background(), WithdrawInput{OfferID: offer.ID, ActorID: uuid.New()})
	if code := errCode(t, err); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}
}

func TestGetVisibleToPartiesOnly(t *testing.T) {
	repo := newFakeRepository()
	seller := uuid.New()
	buyer := uuid.New()
	post := seedPost(repo, seller, "40.00", true)
	offer := seedOffer(repo, post, buyer, "30.00")

	svc := newTestService(t, repo, &fakeOutbox{})
	if _, err := svc.Get(context.Background(), offer.ID, buyer); err != nil {
		t.Fatalf("buyer should see the offer: %v", err)
	}
	if _, err := svc.Get(context.Background(), offer.ID, seller); err != nil {
		t.Fatalf("seller should see the offer: %v", err)
	}
	_, err := svc.Get(context.Background(), offer.ID, uuid.New())
	if code := errCode(t, err); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for stranger, got %s", code)
	}
}
