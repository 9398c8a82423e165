package domain

import "context"

// Member представляет запись справочника участников в рамках тенанта.
// Используется для разрешения авторства во всех видах суб-событий.
type Member struct {
	ID             int64
	TenantID       int64
	ExternalUserID string
	Username       string
}

// MemberRepository определяет контракт для работы со справочником участников.
type MemberRepository interface {
	Upsert(ctx context.Context, m *Member) (*Member, error)
	GetByID(ctx context.Context, id int64) (*Member, error)
	// Resolve возвращает (nil, nil) при промахе: неизвестный автор
	// никогда не блокирует запись родительской сущности.
	Resolve(ctx context.Context, tenantID int64, externalUserID string) (*Member, error)
}
