package service

import (
	"context"
	"sync"
	"time"

	"game-admin-server/internal/models"
	mongorepo "game-admin-server/internal/repository/mongo"
)

// memSessions is an in-memory SessionRepository with the same atomicity
// contract as the real store: ConsumeSession flips consumed under a lock
// so exactly one concurrent caller wins.
type memSessions struct {
	mu       sync.Mutex
	sessions []*models.LoginSession
}

func newMemSessions() *memSessions {
	return &memSessions{}
}

func (m *memSessions) CreateSession(_ context.Context, session *models.LoginSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *session
	m.sessions = append(m.sessions, &cp)
	return nil
}

func (m *memSessions) FindByMobileAndToken(_ context.Context, mobileNo, sessionToken string) (*models.LoginSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sessions) - 1; i >= 0; i-- {
		s := m.sessions[i]
		if s.MobileNo == mobileNo && s.SessionToken == sessionToken {
			cp := *s
			return &cp, nil
		}
	}
	return nil, mongorepo.ErrNotFound
}

func (m *memSessions) ConsumeSession(_ context.Context, mobileNo, sessionToken string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.MobileNo == mobileNo && s.SessionToken == sessionToken && !s.Consumed {
			s.Consumed = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memSessions) SupersedePrior(_ context.Context, mobileNo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.MobileNo == mobileNo && !s.Consumed {
			s.Superseded = true
		}
	}
	return nil
}

func (m *memSessions) get(mobileNo, sessionToken string) *models.LoginSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.MobileNo == mobileNo && s.SessionToken == sessionToken {
			cp := *s
			return &cp
		}
	}
	return nil
}

// memUsers is an in-memory UserRepository. The counter and the unique
// mobile index behave like their store-backed counterparts.
type memUsers struct {
	mu      sync.Mutex
	byMob   map[string]*models.User
	counter uint64
	codes   map[string]bool
}

func newMemUsers() *memUsers {
	return &memUsers{
		byMob: make(map[string]*models.User),
		codes: make(map[string]bool),
	}
}

func (m *memUsers) FindByMobile(_ context.Context, mobileNo string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byMob[mobileNo]
	if !ok {
		return nil, mongorepo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) NextUserNumber(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return m.counter, nil
}

func (m *memUsers) InsertUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byMob[user.MobileNo]; exists {
		return mongorepo.ErrDuplicate
	}
	cp := *user
	m.byMob[user.MobileNo] = &cp
	if user.ReferralCode != "" {
		m.codes[user.ReferralCode] = true
	}
	return nil
}

func (m *memUsers) RefreshLogin(_ context.Context, mobileNo, deviceID, pushToken string, now time.Time) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byMob[mobileNo]
	if !ok {
		return nil, mongorepo.ErrNotFound
	}
	u.DeviceID = deviceID
	u.PushToken = pushToken
	u.LoginCount++
	u.LastLogin = &now
	u.UpdatedAt = now
	cp := *u
	return &cp, nil
}

func (m *memUsers) SetProfile(_ context.Context, mobileNo string, profile mongorepo.ProfileUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byMob[mobileNo]
	if !ok {
		return false, nil
	}
	if u.OnboardingState != models.OnboardingRegistered && u.OnboardingState != models.OnboardingProfileSet {
		return false, nil
	}
	u.FullName = profile.FullName
	u.State = profile.State
	if profile.ReferredBy != "" {
		u.ReferredBy = profile.ReferredBy
	}
	u.OnboardingState = models.OnboardingProfileSet
	return true, nil
}

func (m *memUsers) SetLanguage(_ context.Context, mobileNo string, lang mongorepo.LanguageUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byMob[mobileNo]
	if !ok {
		return false, nil
	}
	if u.OnboardingState != models.OnboardingProfileSet && u.OnboardingState != models.OnboardingLanguageSet {
		return false, nil
	}
	u.LanguageCode = lang.LanguageCode
	u.LanguageName = lang.LanguageName
	u.RegionCode = lang.RegionCode
	u.Timezone = lang.Timezone
	u.OnboardingState = models.OnboardingLanguageSet
	return true, nil
}

func (m *memUsers) ReferralCodeExists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[code], nil
}

// memAttempts counts attempts under a lock, matching the Redis INCR
// contract.
type memAttempts struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newMemAttempts() *memAttempts {
	return &memAttempts{counts: make(map[string]int64)}
}

func (m *memAttempts) Increment(_ context.Context, mobileNo, sessionToken string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := mobileNo + ":" + sessionToken
	m.counts[key]++
	return m.counts[key], nil
}
