package mocks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/corvid-labs/postboard/internal/domain"
	"github.com/corvid-labs/postboard/internal/query"
	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
)

// Operation names accepted by FailNext.
const (
	OpTxBegin          = "tx.begin"
	OpTxCommit         = "tx.commit"
	OpUserCreate       = "user.create"
	OpUserUpdate       = "user.update"
	OpUserDelete       = "user.delete"
	OpPostCreate       = "post.create"
	OpPostUpdate       = "post.update"
	OpPostDelete       = "post.delete"
	OpCategoryCreate   = "category.create"
	OpCategoryUpdate   = "category.update"
	OpCategoryDelete   = "category.delete"
	OpCategoryLock     = "category.lock"
	OpRelationLink     = "relation.link"
	OpRelationUnlink   = "relation.unlink"
	OpRelationUnlinkBy = "relation.unlink_all"
)

// MemoryDB holds users, posts, categories and post→category edges in memory.
// Foreign keys behave like the PostgreSQL schema: deleting a user removes its
// posts, and deleting a post or category removes its edges.
type MemoryDB struct {
	mu   sync.Mutex
	txMu sync.Mutex

	state memoryState
	fails map[string][]error
}

type memoryState struct {
	users      map[uuid.UUID]*domain.User
	posts      map[uuid.UUID]*domain.Post
	categories map[uuid.UUID]*domain.Category
	edges      map[uuid.UUID][]uuid.UUID
}

// NewMemoryDB creates an empty MemoryDB.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		state: memoryState{
			users:      make(map[uuid.UUID]*domain.User),
			posts:      make(map[uuid.UUID]*domain.Post),
			categories: make(map[uuid.UUID]*domain.Category),
			edges:      make(map[uuid.UUID][]uuid.UUID),
		},
		fails: make(map[string][]error),
	}
}

var _ store.TxRunner = (*MemoryDB)(nil)

// Users returns the UserStore view of db.
func (db *MemoryDB) Users() store.UserStore { return &memoryUserStore{db: db} }

// Posts returns the PostStore view of db.
func (db *MemoryDB) Posts() store.PostStore { return &memoryPostStore{db: db} }

// Categories returns the CategoryStore view of db.
func (db *MemoryDB) Categories() store.CategoryStore { return &memoryCategoryStore{db: db} }

// Relations returns the RelationStore view of db.
func (db *MemoryDB) Relations() store.RelationStore { return &memoryRelationStore{db: db} }

// FailNext makes the next call of op return err. Calls queue up: failing the
// same op twice fails its next two calls.
func (db *MemoryDB) FailNext(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.fails[op] = append(db.fails[op], err)
}

// EdgeCount returns the number of post→category edges.
func (db *MemoryDB) EdgeCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, cats := range db.state.edges {
		n += len(cats)
	}
	return n
}

// RunInTx implements store.TxRunner. Transactions are serialized; the state
// seen by fn is restored if fn returns an error or panics.
func (db *MemoryDB) RunInTx(ctx context.Context, fn store.TxFn) (err error) {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	if err := db.takeFailure(OpTxBegin); err != nil {
		return fmt.Errorf("%w: begin: %w", store.ErrTransactionFailed, err)
	}

	snapshot := db.snapshot()
	defer func() {
		if p := recover(); p != nil {
			db.restore(snapshot)
			panic(p)
		}
		if err != nil {
			db.restore(snapshot)
		}
	}()

	if err := fn(ctx, nil); err != nil {
		return err
	}
	if err := db.takeFailure(OpTxCommit); err != nil {
		return fmt.Errorf("%w: commit: %w", store.ErrTransactionFailed, err)
	}
	return nil
}

func (db *MemoryDB) takeFailure(op string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.takeFailureLocked(op)
}

func (db *MemoryDB) takeFailureLocked(op string) error {
	queue := db.fails[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	db.fails[op] = queue[1:]
	if err == nil {
		err = errors.New("injected failure")
	}
	return store.NewStoreError(strings.SplitN(op, ".", 2)[0], op, "injected failure",
		fmt.Errorf("%w: %w", store.ErrStorage, err))
}

func (db *MemoryDB) snapshot() memoryState {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.clone()
}

func (db *MemoryDB) restore(s memoryState) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state = s
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		users:      make(map[uuid.UUID]*domain.User, len(s.users)),
		posts:      make(map[uuid.UUID]*domain.Post, len(s.posts)),
		categories: make(map[uuid.UUID]*domain.Category, len(s.categories)),
		edges:      make(map[uuid.UUID][]uuid.UUID, len(s.edges)),
	}
	for id, u := range s.users {
		out.users[id] = cloneUser(u)
	}
	for id, p := range s.posts {
		out.posts[id] = clonePost(p)
	}
	for id, c := range s.categories {
		cp := *c
		out.categories[id] = &cp
	}
	for id, cats := range s.edges {
		out.edges[id] = slices.Clone(cats)
	}
	return out
}

// deletePostLocked removes a post row and its edges.
func (db *MemoryDB) deletePostLocked(id uuid.UUID) {
	delete(db.state.posts, id)
	delete(db.state.edges, id)
}

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	cp.Address = slices.Clone(u.Address)
	return &cp
}

func clonePost(p *domain.Post) *domain.Post {
	cp := *p
	if p.Image != nil {
		img := *p.Image
		cp.Image = &img
	}
	cp.CategoryIDs = slices.Clone(p.CategoryIDs)
	return &cp
}

// listWindow applies spec to items: filter on the filter column, order by
// spec.Sort, then cut the page. It returns the page and the filtered count.
func listWindow[T any](items []T, spec query.Spec, column func(T, string) any) ([]T, int) {
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if spec.Filter != nil {
			s, _ := column(item, spec.Filter.Column).(string)
			if !spec.Filter.Matches(s) {
				continue
			}
		}
		filtered = append(filtered, item)
	}

	slices.SortStableFunc(filtered, func(a, b T) int {
		for _, o := range spec.Sort {
			c := compareValues(column(a, o.Column), column(b, o.Column))
			if o.Direction == query.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})

	start, end := spec.Window(len(filtered))
	return filtered[start:end], len(filtered)
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return strings.Compare(av, bv)
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Compare(bv)
	case uuid.UUID:
		bv, _ := b.(uuid.UUID)
		return strings.Compare(av.String(), bv.String())
	default:
		return 0
	}
}
