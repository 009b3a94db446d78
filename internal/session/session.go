// Package session holds the authenticated identity and the active restaurant
// selection, mirrored write-through into durable key/value storage.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"dashboard/internal/domain"
	"dashboard/internal/domain/models"
	"dashboard/internal/utils"
)

// Persisted keys.
const (
	KeyToken              = "token"
	KeyUser               = "user"
	KeySelectedRestaurant = "selectedRestaurant"
)

// Storage is the durable key/value storage the session mirrors into.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Snapshot is a copy of the session state at one point in time.
type Snapshot struct {
	User               *models.User          `json:"user"`
	Token              string                `json:"-"`
	SelectedRestaurant *models.RestaurantRef `json:"selectedRestaurant"`
}

// Authenticated reports whether the snapshot carries a session.
func (s Snapshot) Authenticated() bool {
	return s.User != nil && s.Token != ""
}

type Store struct {
	storage Storage

	mu       sync.RWMutex
	user     *models.User
	token    string
	selected *models.RestaurantRef
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Initialize restores the session from storage. It returns false when no
// valid token and user pair was found; the caller must send the user to login.
func (s *Store) Initialize() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user, s.token, s.selected = nil, "", nil

	token, hasToken, err := s.storage.Get(KeyToken)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", KeyToken, err)
	}
	rawUser, hasUser, err := s.storage.Get(KeyUser)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", KeyUser, err)
	}
	if !hasToken || strings.TrimSpace(token) == "" || !hasUser {
		return false, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		utils.L().Warn("persisted session is corrupted, clearing it", zap.Error(err))
		return false, s.clearStorage()
	}

	selected, err := s.restoreSelection(&user)
	if err != nil {
		return false, err
	}

	s.user = &user
	s.token = token
	s.selected = selected
	return true, nil
}

// restoreSelection must be called with mu held.
func (s *Store) restoreSelection(user *models.User) (*models.RestaurantRef, error) {
	raw, ok, err := s.storage.Get(KeySelectedRestaurant)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", KeySelectedRestaurant, err)
	}
	if ok {
		var ref models.RestaurantRef
		if err := json.Unmarshal([]byte(raw), &ref); err == nil && user.HasRestaurant(ref.ID) {
			return &ref, nil
		}
		utils.L().Warn("persisted restaurant selection is invalid, falling back", zap.String("value", raw))
	}

	if len(user.Restaurants) == 0 {
		if ok {
			if err := s.storage.Remove(KeySelectedRestaurant); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
	first := user.Restaurants[0]
	if err := s.persistSelection(&first); err != nil {
		return nil, err
	}
	return &first, nil
}

// Login stores a session obtained from the remote credential exchange.
func (s *Store) Login(token string, user models.User) error {
	if strings.TrimSpace(token) == "" {
		return domain.ValidationError{Field: "token", Msg: "token is required"}
	}
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prior, err := s.readKeys()
	if err != nil {
		return err
	}

	var selected *models.RestaurantRef
	if len(user.Restaurants) > 0 {
		first := user.Restaurants[0]
		selected = &first
	}

	err = s.storage.Set(KeyToken, token)
	if err == nil {
		err = s.storage.Set(KeyUser, string(rawUser))
	}
	if err == nil {
		err = s.persistSelection(selected)
	}
	if err != nil {
		if rerr := s.restoreKeys(prior); rerr != nil {
			utils.L().Error("session storage left inconsistent after failed login", zap.Error(rerr))
			return errors.Join(err, rerr)
		}
		return err
	}

	u := user
	s.user = &u
	s.token = token
	s.selected = selected
	return nil
}

// Logout clears memory unconditionally; storage failures are still reported.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.clearStorage()
	s.user, s.token, s.selected = nil, "", nil
	return err
}

// SetSelectedRestaurant changes the active restaurant; nil clears it.
func (s *Store) SetSelectedRestaurant(ref *models.RestaurantRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref != nil {
		if s.user == nil {
			return domain.UnauthenticatedError{Msg: "cannot select a restaurant without a session"}
		}
		if !s.user.HasRestaurant(ref.ID) {
			return domain.ValidationError{Field: "restaurantId", Msg: fmt.Sprintf("restaurant %d is not assigned to the user", ref.ID)}
		}
		r := *ref
		ref = &r
	}

	if err := s.persistSelection(ref); err != nil {
		return err
	}
	s.selected = ref
	return nil
}

// SelectRestaurantByID resolves id against the user's restaurants and selects it.
func (s *Store) SelectRestaurantByID(id int64) (models.RestaurantRef, error) {
	s.mu.RLock()
	ref, ok := s.user.FindRestaurant(id)
	hasUser := s.user != nil
	s.mu.RUnlock()

	if !hasUser {
		return models.RestaurantRef{}, domain.UnauthenticatedError{}
	}
	if !ok {
		return models.RestaurantRef{}, domain.NotFoundError{Resource: fmt.Sprintf("restaurant %d", id)}
	}
	return ref, s.SetSelectedRestaurant(&ref)
}

// EnsureSelection picks the first restaurant when a user is present but nothing is selected.
func (s *Store) EnsureSelection() error {
	s.mu.RLock()
	need := s.user != nil && s.selected == nil && len(s.user.Restaurants) > 0
	var first models.RestaurantRef
	if need {
		first = s.user.Restaurants[0]
	}
	s.mu.RUnlock()

	if !need {
		return nil
	}
	return s.SetSelectedRestaurant(&first)
}

func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.user)
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) SelectedRestaurant() *models.RestaurantRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	r := *s.selected
	return &r
}

func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{User: copyUser(s.user), Token: s.token}
	if s.selected != nil {
		r := *s.selected
		snap.SelectedRestaurant = &r
	}
	return snap
}

// persistSelection must be called with mu held.
func (s *Store) persistSelection(ref *models.RestaurantRef) error {
	if ref == nil {
		return s.storage.Remove(KeySelectedRestaurant)
	}
	raw, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("encode selected restaurant: %w", err)
	}
	return s.storage.Set(KeySelectedRestaurant, string(raw))
}

type storedValue struct {
	value   string
	present bool
}

// readKeys must be called with mu held.
func (s *Store) readKeys() (map[string]storedValue, error) {
	out := make(map[string]storedValue, 3)
	for _, key := range []string{KeyToken, KeyUser, KeySelectedRestaurant} {
		v, ok, err := s.storage.Get(key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		out[key] = storedValue{value: v, present: ok}
	}
	return out, nil
}

// restoreKeys puts back values captured by readKeys, attempting every key.
func (s *Store) restoreKeys(prior map[string]storedValue) error {
	var errs []error
	for _, key := range []string{KeyToken, KeyUser, KeySelectedRestaurant} {
		v := prior[key]
		var err error
		if v.present {
			err = s.storage.Set(key, v.value)
		} else {
			err = s.storage.Remove(key)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// clearStorage removes every key, attempting all of them.
func (s *Store) clearStorage() error {
	var errs []error
	for _, key := range []string{KeyToken, KeyUser, KeySelectedRestaurant} {
		if err := s.storage.Remove(key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Restaurants = append([]models.RestaurantRef(nil), u.Restaurants...)
	return &c
}
