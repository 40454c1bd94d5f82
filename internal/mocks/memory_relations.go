package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/corvid-labs/postboard/internal/store"
	"github.com/google/uuid"
)

type memoryRelationStore struct {
	db *MemoryDB
}

var _ store.RelationStore = (*memoryRelationStore)(nil)

func (s *memoryRelationStore) WithTx(*sql.Tx) store.RelationStore { return s }

func (s *memoryRelationStore) CategoryIDs(_ context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ids := slices.Clone(s.db.state.edges[postID])
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}

func (s *memoryRelationStore) Link(_ context.Context, postID uuid.UUID, categoryIDs []uuid.UUID) error {
	if len(categoryIDs) == 0 {
		return nil
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.takeFailureLocked(OpRelationLink); err != nil {
		return err
	}

	if _, ok := s.db.state.posts[postID]; !ok {
		return fmt.Errorf("%w: post %s not found", store.ErrInvalidEntity, postID)
	}
	for _, id := range categoryIDs {
		if _, ok := s.db.state.categories[id]; !ok {
			return fmt.Errorf("%w: category %s not found", store.ErrInvalidEntity, id)
		}
	}

	edges := s.db.state.edges[postID]
	for _, id := range categoryIDs {
		if !slices.Contains(edges, id) {
			edges = append(edges, id)
		}
	}
	s.db.state.edges[postID] = edges
	return nil
}

func (s *memoryRelationStore) Unlink(_ context.Context, postID uuid.UUID, categoryIDs []uuid.UUID) error {
	if len(categoryIDs) == 0 {
		return nil
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.takeFailureLocked(OpRelationUnlink); err != nil {
		return err
	}

	s.db.state.edges[postID] = slices.DeleteFunc(s.db.state.edges[postID], func(c uuid.UUID) bool {
		return slices.Contains(categoryIDs, c)
	})
	return nil
}

func (s *memoryRelationStore) UnlinkPost(_ context.Context, postID uuid.UUID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.takeFailureLocked(OpRelationUnlinkBy); err != nil {
		return 0, err
	}

	n := int64(len(s.db.state.edges[postID]))
	delete(s.db.state.edges, postID)
	return n, nil
}

func (s *memoryRelationStore) UnlinkCategory(_ context.Context, categoryID uuid.UUID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.takeFailureLocked(OpRelationUnlinkBy); err != nil {
		return 0, err
	}

	var n int64
	for postID, cats := range s.db.state.edges {
		kept := slices.DeleteFunc(cats, func(c uuid.UUID) bool { return c == categoryID })
		n += int64(len(cats) - len(kept))
		s.db.state.edges[postID] = kept
	}
	return n, nil
}
