package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

type MemoryTemplateRepository struct {
	templates map[domain.TemplateID]*domain.Template
	mu        sync.RWMutex
}

func NewMemoryTemplateRepository() ports.TemplateRepository {
	return &MemoryTemplateRepository{
		templates: make(map[domain.TemplateID]*domain.Template),
	}
}

func (r *MemoryTemplateRepository) Create(ctx context.Context, template *domain.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[template.ID]; exists {
		return fmt.Errorf("template already exists: %s", template.ID)
	}

	r.templates[template.ID] = template
	return nil
}

func (r *MemoryTemplateRepository) GetByID(ctx context.Context, id domain.TemplateID) (*domain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	template, exists := r.templates[id]
	if !exists {
		return nil, domain.ErrTemplateNotFound
	}
	return template, nil
}

func (r *MemoryTemplateRepository) ListByOwner(ctx context.Context, owner domain.UserID) ([]*domain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var owned []*domain.Template
	for _, template := range r.templates {
		if template.OwnerID == owner {
			owned = append(owned, template)
		}
	}
	return owned, nil
}

func (r *MemoryTemplateRepository) ListAll(ctx context.Context) ([]*domain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Template, 0, len(r.templates))
	for _, template := range r.templates {
		all = append(all, template)
	}
	return all, nil
}
