// Package memory is an in-process implementation of the repository stores. It enforces the same
// keys and constraints as the Postgres schema and backs tests and local demos.
package memory

import (
	"PetAdoptAPI/internal/entity"
	"PetAdoptAPI/internal/repository"
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type chatKey struct {
	petID        uuid.UUID
	interestedID uuid.UUID
}

// Store holds every table behind one lock.
type Store struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*entity.Profile
	pets     map[uuid.UUID]*entity.Pet
	chats    map[uuid.UUID]*entity.Conversation
	byPair   map[chatKey]uuid.UUID
	messages map[uuid.UUID][]*entity.Message
}

func NewStore() *Store {
	return &Store{
		profiles: make(map[uuid.UUID]*entity.Profile),
		pets:     make(map[uuid.UUID]*entity.Pet),
		chats:    make(map[uuid.UUID]*entity.Conversation),
		byPair:   make(map[chatKey]uuid.UUID),
		messages: make(map[uuid.UUID][]*entity.Message),
	}
}

// NewRepository returns a repository whose stores all share s. Session and RateLimit stay nil.
func NewRepository(s *Store) *repository.Repository {
	return &repository.Repository{
		Chat:    &ChatStore{s},
		Message: &MessageStore{s},
		Pet:     &PetStore{s},
		Profile: &ProfileStore{s},
	}
}

func copyConversation(c *entity.Conversation) *entity.Conversation {
	out := *c
	if c.LastMessagePreview != nil {
		preview := *c.LastMessagePreview
		out.LastMessagePreview = &preview
	}
	return &out
}

func copyMessage(m *entity.Message) *entity.Message {
	out := *m
	return &out
}

type ChatStore struct{ s *Store }

func (r *ChatStore) GetByID(_ context.Context, id uuid.UUID) (*entity.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyConversation(c), nil
}

func (r *ChatStore) FindByPetAndInterested(_ context.Context, petID, interestedID uuid.UUID) (*entity.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byPair[chatKey{petID, interestedID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyConversation(r.s.chats[id]), nil
}

func (r *ChatStore) Create(_ context.Context, c *entity.Conversation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := chatKey{c.PetID, c.InterestedID}
	if _, ok := r.s.byPair[key]; ok {
		return fmt.Errorf("unique_pet_interested: %w", repository.ErrConflict)
	}
	if _, ok := r.s.chats[c.ID]; ok {
		return fmt.Errorf("chats_pkey: %w", repository.ErrConflict)
	}
	if _, ok := r.s.pets[c.PetID]; !ok {
		return fmt.Errorf("chats_pet_id_fkey: %w", repository.ErrNotFound)
	}
	if r.s.profiles[c.OwnerID] == nil || r.s.profiles[c.InterestedID] == nil {
		return fmt.Errorf("chats_party_fkey: %w", repository.ErrNotFound)
	}

	r.s.chats[c.ID] = copyConversation(c)
	r.s.byPair[key] = c.ID
	return nil
}

func (r *ChatStore) AppendMessage(_ context.Context, msg *entity.Message, recipient entity.Role) (*entity.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.chats[msg.ChatID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, existing := range r.s.messages[msg.ChatID] {
		if existing.ID == msg.ID {
			return nil, fmt.Errorf("messages_pkey: %w", repository.ErrConflict)
		}
	}

	r.s.messages[msg.ChatID] = append(r.s.messages[msg.ChatID], copyMessage(msg))

	if !msg.CreatedAt.Before(c.LastMessageAt) {
		preview := msg.Content
		c.LastMessagePreview = &preview
		c.LastMessageAt = msg.CreatedAt
	}
	if recipient == entity.RoleOwner {
		c.OwnerUnreadCount++
	} else {
		c.InterestedUnreadCount++
	}

	return copyConversation(c), nil
}

func (r *ChatStore) MarkRead(_ context.Context, chatID, readerID uuid.UUID, reader entity.Role) ([]*entity.Message, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.chats[chatID]
	if !ok {
		return nil, false, repository.ErrNotFound
	}

	var marked []*entity.Message
	for _, m := range r.s.messages[chatID] {
		if m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			marked = append(marked, copyMessage(m))
		}
	}

	unread := c.UnreadFor(reader)
	if reader == entity.RoleOwner {
		c.OwnerUnreadCount = 0
	} else {
		c.InterestedUnreadCount = 0
	}

	entity.SortMessages(marked)
	return marked, unread != 0 || len(marked) > 0, nil
}

func (r *ChatStore) record(c *entity.Conversation) *entity.InboxRecord {
	rec := &entity.InboxRecord{Conversation: *copyConversation(c)}
	if p, ok := r.s.pets[c.PetID]; ok {
		name := p.Name
		rec.PetName = &name
		rec.PetImageURL = p.ImageURL
	}
	if p, ok := r.s.profiles[c.OwnerID]; ok {
		rec.OwnerName = p.FullName
	}
	if p, ok := r.s.profiles[c.InterestedID]; ok {
		rec.InterestedName = p.FullName
	}
	return rec
}

func (r *ChatStore) ListInbox(_ context.Context, userID uuid.UUID) ([]*entity.InboxRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entity.InboxRecord, 0)
	for _, c := range r.s.chats {
		if c.OwnerID == userID || c.InterestedID == userID {
			out = append(out, r.record(c))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastMessageAt.Equal(out[j].LastMessageAt) {
			return out[i].LastMessageAt.After(out[j].LastMessageAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	return out, nil
}

func (r *ChatStore) GetInboxRecord(_ context.Context, chatID uuid.UUID) (*entity.InboxRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.chats[chatID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.record(c), nil
}

func (r *ChatStore) ReconcileUnreadCounts(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var drifted int64
	for id, c := range r.s.chats {
		owner, interested := 0, 0
		for _, m := range r.s.messages[id] {
			if m.IsRead {
				continue
			}
			if m.SenderID != c.OwnerID {
				owner++
			}
			if m.SenderID != c.InterestedID {
				interested++
			}
		}
		if owner != c.OwnerUnreadCount || interested != c.InterestedUnreadCount {
			c.OwnerUnreadCount = owner
			c.InterestedUnreadCount = interested
			drifted++
		}
	}
	return drifted, nil
}

// SetUnreadCounts overwrites both counters, simulating drift left by a failed read.
func (r *ChatStore) SetUnreadCounts(chatID uuid.UUID, owner, interested int) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c, ok := r.s.chats[chatID]; ok {
		c.OwnerUnreadCount = owner
		c.InterestedUnreadCount = interested
	}
}

type MessageStore struct{ s *Store }

func (r *MessageStore) ListByChat(_ context.Context, chatID uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]*entity.Message, 0, len(r.s.messages[chatID]))
	for _, m := range r.s.messages[chatID] {
		all = append(all, copyMessage(m))
	}
	entity.SortMessages(all)

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []*entity.Message{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

type PetStore struct{ s *Store }

func (r *PetStore) GetByID(_ context.Context, id uuid.UUID) (*entity.Pet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.pets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *PetStore) Create(_ context.Context, p *entity.Pet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.pets[p.ID]; ok {
		return fmt.Errorf("pets_pkey: %w", repository.ErrConflict)
	}
	if _, ok := r.s.profiles[p.OwnerID]; !ok {
		return fmt.Errorf("pets_owner_id_fkey: %w", repository.ErrNotFound)
	}
	stored := *p
	r.s.pets[p.ID] = &stored
	return nil
}

// SetAvailable flips the adoption flag of a pet.
func (r *PetStore) SetAvailable(id uuid.UUID, available bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p, ok := r.s.pets[id]; ok {
		p.IsAvailable = available
	}
}

// Remove drops a pet row while leaving its conversations behind.
func (r *PetStore) Remove(id uuid.UUID) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.pets, id)
}

type ProfileStore struct{ s *Store }

func (r *ProfileStore) GetByID(_ context.Context, id uuid.UUID) (*entity.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *ProfileStore) GetByIDs(_ context.Context, ids ...uuid.UUID) (map[uuid.UUID]*entity.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[uuid.UUID]*entity.Profile, len(ids))
	for _, id := range ids {
		if p, ok := r.s.profiles[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *ProfileStore) Upsert(_ context.Context, p *entity.Profile) (*entity.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.profiles {
		if strings.EqualFold(existing.Email, p.Email) {
			existing.FullName = p.FullName
			existing.AvatarURL = p.AvatarURL
			out := *existing
			return &out, nil
		}
	}

	stored := *p
	r.s.profiles[p.ID] = &stored
	out := stored
	return &out, nil
}
