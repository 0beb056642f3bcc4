// Package hierarchy вычисляет область управления действующего субъекта:
// множество пользователей, которых роль может просматривать и изменять.
// Все проверки доступа к назначениям проходят через Scope.
package hierarchy

import "github.com/magabrotheeeer/catalog-entitlements/internal/models"

// Kind вид области управления.
type Kind int

const (
	// KindNone пустая область: роль никем не управляет.
	KindNone Kind = iota
	// KindAll все пользователи (ADMIN).
	KindAll
	// KindRSM пользователи, закреплённые за RSM напрямую или через его дистрибьюторов.
	KindRSM
	// KindDistributor пользователи, закреплённые за дистрибьютором.
	KindDistributor
)

// Scope декларативный фильтр пользователей. Хранилище переводит его в SQL,
// сервисы проверяют отдельных пользователей через Allows.
type Scope struct {
	Kind    Kind
	ActorID string
}

// For возвращает область управления для субъекта.
func For(actor models.Principal) Scope {
	if actor.ID == "" {
		return Scope{Kind: KindNone}
	}
	switch actor.Role {
	case models.RoleAdmin:
		return Scope{Kind: KindAll, ActorID: actor.ID}
	case models.RoleRSM:
		return Scope{Kind: KindRSM, ActorID: actor.ID}
	case models.RoleDistributorRep:
		return Scope{Kind: KindDistributor, ActorID: actor.ID}
	default:
		return Scope{Kind: KindNone, ActorID: actor.ID}
	}
}

// Empty сообщает, что субъект никем не управляет.
func (s Scope) Empty() bool {
	return s.Kind == KindNone
}

// DistributorLookup возвращает дистрибьютора по идентификатору.
type DistributorLookup func(id string) (*models.User, bool)

// Allows сообщает, входит ли пользователь u в область. Для области RSM нужен
// lookup, чтобы пройти к пользователям через закреплённых за RSM дистрибьюторов.
func (s Scope) Allows(u *models.User, lookup DistributorLookup) bool {
	if u == nil {
		return false
	}
	switch s.Kind {
	case KindAll:
		return true
	case KindDistributor:
		return eq(u.AssignedToDistributorID, s.ActorID)
	case KindRSM:
		if eq(u.AssignedToRsmID, s.ActorID) {
			return true
		}
		if u.AssignedToDistributorID == nil || lookup == nil {
			return false
		}
		d, ok := lookup(*u.AssignedToDistributorID)
		return ok && d.Role == models.RoleDistributorRep && eq(d.AssignedToRsmID, s.ActorID)
	default:
		return false
	}
}

// NeedsDistributors сообщает, нужны ли Allows данные о дистрибьюторах.
func (s Scope) NeedsDistributors() bool {
	return s.Kind == KindRSM
}

func eq(p *string, v string) bool {
	return p != nil && *p == v
}
