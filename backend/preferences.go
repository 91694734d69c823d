package main

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Preferences is the per-install document kept next to the leaderboard.
type Preferences struct {
	Volume           int     `json:"volume"`
	Theme            string  `json:"theme"`
	LastPlayerName   string  `json:"last_player_name"`
	LanCooldownUntil float64 `json:"lan_cooldown_until"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Volume: 100,
		Theme:  "default",
	}
}

// PreferencesPort is what the controller needs from a preferences store.
type PreferencesPort interface {
	Load() Preferences
	Update(func(*Preferences)) (Preferences, error)
}

type PreferencesStore struct {
	mu   sync.Mutex
	path string
}

func NewPreferencesStore(path string) *PreferencesStore {
	return &PreferencesStore{path: path}
}

// Load never fails: a missing or corrupt file yields the defaults.
func (s *PreferencesStore) Load() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *PreferencesStore) load() Preferences {
	prefs := DefaultPreferences()
	if _, err := loadJSONFile(s.path, &prefs); err != nil {
		if errors.Is(err, errDocumentCorrupt) {
			log.Warn().Err(err).Str("component", "prefs").Msg("preferences unreadable, using defaults")
		} else {
			log.Warn().Err(err).Str("component", "prefs").Msg("could not open preferences")
		}
		return DefaultPreferences()
	}
	if prefs.Volume < 0 {
		prefs.Volume = 0
	}
	if prefs.Volume > 100 {
		prefs.Volume = 100
	}
	if prefs.Theme == "" {
		prefs.Theme = "default"
	}
	return prefs
}

// Update applies fn to the stored document and writes it back.
func (s *PreferencesStore) Update(fn func(*Preferences)) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefs := s.load()
	fn(&prefs)
	if err := saveJSONFile(s.path, prefs); err != nil {
		return prefs, err
	}
	return prefs, nil
}

// CooldownRemaining reports whole seconds left before LAN play is allowed again.
func CooldownRemaining(prefs Preferences, now time.Time) int {
	nowSec := float64(now.UnixNano()) / float64(time.Second)
	if nowSec >= prefs.LanCooldownUntil {
		return 0
	}
	return int(prefs.LanCooldownUntil - nowSec)
}

func applyCooldown(prefs *Preferences, now time.Time, duration time.Duration, name string) {
	prefs.LanCooldownUntil = float64(now.Add(duration).UnixNano()) / float64(time.Second)
	if name != "" {
		prefs.LastPlayerName = name
	}
}
