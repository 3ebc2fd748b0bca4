package service

import (
	"context"
	"sync"
	"time"

	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/internal/repository/contract"
	"desirefinder-be/internal/repository/specification"
	"desirefinder-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// row is what the fake repositories know how to filter on.
type row struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	ChatID            uuid.UUID
	MessageID         string
	SupplierProductID string
	Status            string
}

func matches(r row, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if r.ID != s.ID {
				return false
			}
		case specification.UserOwnedBy:
			if r.UserID != s.UserID {
				return false
			}
		case specification.ByChatID:
			if r.ChatID != s.ChatID {
				return false
			}
		case specification.ByMessageID:
			if r.MessageID != s.MessageID {
				return false
			}
		case specification.BySupplierProductID:
			if r.SupplierProductID != s.SupplierProductID {
				return false
			}
		}
	}
	return true
}

// memDB is an in-memory stand-in for the gorm repositories. Transactions
// are not isolated; tests only check committed outcomes.
type memDB struct {
	mu         sync.Mutex
	users      []*entity.User
	ledger     []*entity.CreditTransaction
	chats      []*entity.Chat
	messages   []*entity.Message
	history    []*entity.SearchHistory
	products   []*entity.Product
	orders     []*entity.Order
	documents  []*entity.Document
	embeddings []*entity.DocumentEmbedding

	scored         []*contract.ScoredDocumentEmbedding
	lastSearchDocs []uuid.UUID

	commits int
}

func newMemDB() *memDB {
	return &memDB{}
}

func (db *memDB) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUoW{db: db}
}

var _ unitofwork.RepositoryFactory = (*memDB)(nil)

type memUoW struct {
	db *memDB
}

func (u *memUoW) Begin(ctx context.Context) error { return nil }
func (u *memUoW) Commit() error {
	u.db.mu.Lock()
	u.db.commits++
	u.db.mu.Unlock()
	return nil
}
func (u *memUoW) Rollback() error { return nil }

func (u *memUoW) UserRepository() contract.UserRepository { return memUsers{u.db} }
func (u *memUoW) CreditTransactionRepository() contract.CreditTransactionRepository {
	return memLedger{u.db}
}
func (u *memUoW) ChatRepository() contract.ChatRepository       { return memChats{u.db} }
func (u *memUoW) MessageRepository() contract.MessageRepository { return memMessages{u.db} }
func (u *memUoW) SearchHistoryRepository() contract.SearchHistoryRepository {
	return memHistory{u.db}
}
func (u *memUoW) ProductRepository() contract.ProductRepository { return memProducts{u.db} }
func (u *memUoW) OrderRepository() contract.OrderRepository     { return memOrders{u.db} }
func (u *memUoW) DocumentRepository() contract.DocumentRepository {
	return memDocuments{u.db}
}
func (u *memUoW) DocumentEmbeddingRepository() contract.DocumentEmbeddingRepository {
	return memEmbeddings{u.db}
}

type memUsers struct{ db *memDB }

func (r memUsers) Create(ctx context.Context, user *entity.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *user
	r.db.users = append(r.db.users, &cp)
	return nil
}

func (r memUsers) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if matches(row{ID: u.Id}, specs) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memUsers) AdjustCredits(ctx context.Context, userId uuid.UUID, delta int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Id == userId {
			if u.Credits+delta < 0 {
				return contract.ErrInsufficientCredits
			}
			u.Credits += delta
			return nil
		}
	}
	return contract.ErrInsufficientCredits
}

type memLedger struct{ db *memDB }

func (r memLedger) Create(ctx context.Context, tx *entity.CreditTransaction) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *tx
	r.db.ledger = append(r.db.ledger, &cp)
	return nil
}

func (r memLedger) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CreditTransaction, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.CreditTransaction
	for _, t := range r.db.ledger {
		if matches(row{ID: t.Id, UserID: t.UserId}, specs) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memChats struct{ db *memDB }

func (r memChats) Create(ctx context.Context, chat *entity.Chat) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *chat
	r.db.chats = append(r.db.chats, &cp)
	return nil
}

func (r memChats) Update(ctx context.Context, chat *entity.Chat) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i, c := range r.db.chats {
		if c.Id == chat.Id {
			cp := *chat
			r.db.chats[i] = &cp
		}
	}
	return nil
}

func (r memChats) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r memChats) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.Chat
	for _, c := range r.db.chats {
		if matches(row{ID: c.Id, UserID: c.UserId}, specs) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memMessages struct{ db *memDB }

func (r memMessages) Create(ctx context.Context, message *entity.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *message
	r.db.messages = append(r.db.messages, &cp)
	return nil
}

func (r memMessages) Update(ctx context.Context, message *entity.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i, m := range r.db.messages {
		if m.Id == message.Id {
			cp := *message
			r.db.messages[i] = &cp
		}
	}
	return nil
}

func (r memMessages) DeleteAfter(ctx context.Context, chatId uuid.UUID, after time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.messages[:0]
	for _, m := range r.db.messages {
		if m.ChatId == chatId && m.CreatedAt.After(after) {
			continue
		}
		kept = append(kept, m)
	}
	r.db.messages = kept
	return nil
}

func (r memMessages) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r memMessages) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.Message
	for _, m := range r.db.messages {
		if matches(row{ID: m.Id, ChatID: m.ChatId, MessageID: m.MessageId, Status: m.Status}, specs) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memHistory struct{ db *memDB }

func (r memHistory) Create(ctx context.Context, history *entity.SearchHistory) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *history
	r.db.history = append(r.db.history, &cp)
	return nil
}

func (r memHistory) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SearchHistory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.SearchHistory
	for _, h := range r.db.history {
		if matches(row{ID: h.Id, UserID: h.UserId}, specs) {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memProducts struct{ db *memDB }

func (r memProducts) Create(ctx context.Context, product *entity.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *product
	r.db.products = append(r.db.products, &cp)
	return nil
}

func (r memProducts) Update(ctx context.Context, product *entity.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i, p := range r.db.products {
		if p.Id == product.Id {
			cp := *product
			r.db.products[i] = &cp
		}
	}
	return nil
}

func (r memProducts) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.products {
		if matches(row{ID: p.Id, SupplierProductID: p.SupplierProductId}, specs) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

type memOrders struct{ db *memDB }

func (r memOrders) Create(ctx context.Context, order *entity.Order) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *order
	r.db.orders = append(r.db.orders, &cp)
	return nil
}

func (r memOrders) Update(ctx context.Context, order *entity.Order) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i, o := range r.db.orders {
		if o.Id == order.Id {
			cp := *order
			r.db.orders[i] = &cp
		}
	}
	return nil
}

func (r memOrders) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Order, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r memOrders) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.Order
	for _, o := range r.db.orders {
		if matches(row{ID: o.Id, UserID: o.UserId, Status: o.Status}, specs) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memDocuments struct{ db *memDB }

func (r memDocuments) Create(ctx context.Context, document *entity.Document) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *document
	r.db.documents = append(r.db.documents, &cp)
	return nil
}

func (r memDocuments) Update(ctx context.Context, document *entity.Document) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i, d := range r.db.documents {
		if d.Id == document.Id {
			cp := *document
			r.db.documents[i] = &cp
		}
	}
	return nil
}

func (r memDocuments) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r memDocuments) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.Document
	for _, d := range r.db.documents {
		if matches(row{ID: d.Id, UserID: d.UserId, Status: d.Status}, specs) {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memEmbeddings struct{ db *memDB }

func (r memEmbeddings) CreateBulk(ctx context.Context, embeddings []*entity.DocumentEmbedding) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.embeddings = append(r.db.embeddings, embeddings...)
	return nil
}

func (r memEmbeddings) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.embeddings[:0]
	for _, e := range r.db.embeddings {
		if e.DocumentId != documentId {
			kept = append(kept, e)
		}
	}
	r.db.embeddings = kept
	return nil
}

func (r memEmbeddings) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, documentIds []uuid.UUID, threshold float64) ([]*contract.ScoredDocumentEmbedding, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.lastSearchDocs = documentIds
	return r.db.scored, nil
}

func (db *memDB) user(id uuid.UUID) *entity.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, u := range db.users {
		if u.Id == id {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (db *memDB) message(msgID string) *entity.Message {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, m := range db.messages {
		if m.MessageId == msgID {
			cp := *m
			return &cp
		}
	}
	return nil
}

func (db *memDB) document(id uuid.UUID) *entity.Document {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, d := range db.documents {
		if d.Id == id {
			cp := *d
			return &cp
		}
	}
	return nil
}

var nopLogger = logger.NewNopLogger()
