package models

import "fmt"

// Role роль пользователя. Роли образуют упорядоченную шкалу уровней,
// от бесплатного аккаунта до администратора.
type Role string

const (
	RoleFree           Role = "FREE"
	RoleBasicUser      Role = "BASIC_USER"
	RoleDirectUser     Role = "DIRECT_USER"
	RoleDistributorRep Role = "DISTRIBUTOR_REP"
	RoleRSM            Role = "RSM"
	RoleAdmin          Role = "ADMIN"
)

var roleTiers = map[Role]int{
	RoleFree:           0,
	RoleBasicUser:      1,
	RoleDirectUser:     2,
	RoleDistributorRep: 3,
	RoleRSM:            4,
	RoleAdmin:          5,
}

// ParseRole разбирает строковое значение роли.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid сообщает, является ли значение известной ролью.
func (r Role) Valid() bool {
	_, ok := roleTiers[r]
	return ok
}

// Tier возвращает уровень роли; для неизвестной роли -1.
func (r Role) Tier() int {
	t, ok := roleTiers[r]
	if !ok {
		return -1
	}
	return t
}

// AtLeast сообщает, что роль не ниже other.
func (r Role) AtLeast(other Role) bool {
	return r.Valid() && r.Tier() >= other.Tier()
}

// IsPaid сообщает, что роль выше бесплатного уровня.
func (r Role) IsPaid() bool {
	return r.Tier() > RoleFree.Tier()
}
