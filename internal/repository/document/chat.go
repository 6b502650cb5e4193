package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dtroode/gophchat-server/internal/model"
)

var _ model.ChatStore = (*ChatRepository)(nil)

type chatDoc struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Messages  []model.ChatEntry `json:"messages"`
}

type chatsDoc struct {
	Owner string              `json:"owner"`
	Chats map[string]*chatDoc `json:"chats"`
}

// ChatRepository keeps one document per user holding all of their chats.
type ChatRepository struct {
	storage model.Storage
	mu      sync.Mutex
}

func NewChatRepository(storage model.Storage) *ChatRepository {
	return &ChatRepository{storage: storage}
}

// chatsKey hashes the email so arbitrary addresses map to safe object names.
func chatsKey(owner string) string {
	sum := sha256.Sum256([]byte(owner))
	return "chats/" + hex.EncodeToString(sum[:]) + ".json"
}

func (r *ChatRepository) loadChats(ctx context.Context, owner string) (*chatsDoc, error) {
	doc := &chatsDoc{}
	if _, err := load(ctx, r.storage, chatsKey(owner), doc); err != nil {
		return nil, err
	}
	doc.Owner = owner
	if doc.Chats == nil {
		doc.Chats = map[string]*chatDoc{}
	}
	return doc, nil
}

// Append holds the repository lock across the read-modify-write so
// overlapping appends from this process never drop entries.
func (r *ChatRepository) Append(ctx context.Context, owner, chatID string, entries ...model.ChatEntry) (model.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadChats(ctx, owner)
	if err != nil {
		return model.Chat{}, err
	}

	now := time.Now().UTC()
	chat, ok := doc.Chats[chatID]
	if !ok {
		chat = &chatDoc{ID: chatID, CreatedAt: now}
		doc.Chats[chatID] = chat
	}
	chat.Messages = append(chat.Messages, entries...)
	chat.UpdatedAt = now

	if err := save(ctx, r.storage, chatsKey(owner), doc); err != nil {
		return model.Chat{}, err
	}
	return toChat(owner, chat), nil
}

func (r *ChatRepository) Get(ctx context.Context, owner, chatID string) (model.Chat, error) {
	doc, err := r.loadChats(ctx, owner)
	if err != nil {
		return model.Chat{}, err
	}
	chat, ok := doc.Chats[chatID]
	if !ok {
		return model.Chat{}, model.ErrNotFound
	}
	return toChat(owner, chat), nil
}

// List returns chats most recently updated first.
func (r *ChatRepository) List(ctx context.Context, owner string) ([]model.ChatSummary, error) {
	doc, err := r.loadChats(ctx, owner)
	if err != nil {
		return nil, err
	}

	out := make([]model.ChatSummary, 0, len(doc.Chats))
	for _, c := range doc.Chats {
		out = append(out, model.ChatSummary{
			ID:           c.ID,
			Title:        model.ChatTitle(c.Messages),
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
			MessageCount: len(c.Messages),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *ChatRepository) History(ctx context.Context, owner string) ([]model.ChatEntry, error) {
	doc, err := r.loadChats(ctx, owner)
	if err != nil {
		return nil, err
	}

	chats := make([]*chatDoc, 0, len(doc.Chats))
	for _, c := range doc.Chats {
		chats = append(chats, c)
	}
	sort.Slice(chats, func(i, j int) bool {
		if chats[i].CreatedAt.Equal(chats[j].CreatedAt) {
			return chats[i].ID < chats[j].ID
		}
		return chats[i].CreatedAt.Before(chats[j].CreatedAt)
	})

	var out []model.ChatEntry
	for _, c := range chats {
		out = append(out, c.Messages...)
	}
	// Stable so entries of one chat keep their order on equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if out == nil {
		out = []model.ChatEntry{}
	}
	return out, nil
}

func toChat(owner string, c *chatDoc) model.Chat {
	return model.Chat{
		ID:        c.ID,
		Owner:     owner,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  slices.Clone(c.Messages),
	}
}
