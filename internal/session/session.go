// Package session хранит состояние аутентификации текущего сеанса.
package session

import (
	"sync"

	"github.com/mmeshcher/storefront/internal/model"
)

// Session хранит токен и пользователя текущего сеанса. Создаётся пустым,
// заполняется при входе или регистрации и очищается при выходе.
type Session struct {
	mu    sync.RWMutex
	token string
	user  *model.User
}

// New создаёт пустой сеанс.
func New() *Session {
	return &Session{}
}

// Start сохраняет токен и пользователя.
func (s *Session) Start(token string, user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	if user != nil {
		u := *user
		s.user = &u
	} else {
		s.user = nil
	}
}

// SetUser обновляет данные пользователя, не трогая токен.
func (s *Session) SetUser(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
}

// Clear завершает сеанс.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
}

// Token возвращает токен или пустую строку.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User возвращает копию пользователя сеанса.
func (s *Session) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Authenticated сообщает, есть ли у сеанса токен.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}
