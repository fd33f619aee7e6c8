package service

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/metrics"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

const (
	SettingsSavedMessage   = "Alterações salvas!"
	SettingsPartialMessage = "Algumas alterações falharam"
	EmailChangeNotice      = "Se necessário, confirme a troca de e-mail pelo link enviado."
)

// Settings fields, in the order their outcomes are reported.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldPassword = "password"
)

//go:generate mockgen -source=$GOFILE -destination=settings_mocks_test.go -package=service_test

type profileStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateName(ctx context.Context, id primitive.ObjectID, name string) (*domain.User, error)
	UpdatePhone(ctx context.Context, id primitive.ObjectID, phone string) error
	UpdateAvatarURL(ctx context.Context, id primitive.ObjectID, url string) error
}

type identityUpdater interface {
	UpdateUser(ctx context.Context, userID primitive.ObjectID, update UserUpdate) (*domain.User, error)
}

type avatarStorage interface {
	Upload(ctx context.Context, path string, body []byte, contentType string, overwrite bool) (string, error)
	PublicURL(path string) string
	Delete(ctx context.Context, path string) error
}

// Profile is the editable part of a user, the baseline of the settings form.
type Profile struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatarUrl"`
}

type SettingsForm struct {
	Name                 string `json:"name" binding:"required"`
	Email                string `json:"email" binding:"required,email"`
	Phone                string `json:"phone"`
	Password             string `json:"password" binding:"omitempty,min=6"`
	PasswordConfirmation string `json:"passwordConfirmation" binding:"eqfield=Password"`
}

// SaveResult is the outcome of a save. Profile is the new baseline: the old
// one with every field whose call succeeded.
type SaveResult struct {
	Profile Profile  `json:"profile"`
	Updated []string `json:"updated"`
	Failed  []string `json:"failed,omitempty"`
	Message string   `json:"message"`
}

type SettingsTimeouts struct {
	Name     time.Duration
	Email    time.Duration
	Phone    time.Duration
	Password time.Duration
}

type SettingsService interface {
	Load(ctx context.Context, userID primitive.ObjectID) (*Profile, error)
	// Save writes the changed fields concurrently and waits for all of them.
	// On partial failure both the result and the combined error are returned.
	Save(ctx context.Context, userID primitive.ObjectID, form SettingsForm) (*SaveResult, error)
	// ReplaceAvatar uploads a new avatar and returns its public URL.
	ReplaceAvatar(ctx context.Context, userID primitive.ObjectID, body []byte, filename string) (string, error)
}

type settingsService struct {
	profiles profileStore
	identity identityUpdater
	avatars  avatarStorage
	timeouts SettingsTimeouts
	metrics  *metrics.Manager
}

func NewSettingsService(profiles profileStore, identity identityUpdater, avatars avatarStorage, timeouts SettingsTimeouts, metricsManager *metrics.Manager) SettingsService {
	return &settingsService{
		profiles: profiles,
		identity: identity,
		avatars:  avatars,
		timeouts: timeouts,
		metrics:  metricsManager,
	}
}

func (s *settingsService) Load(ctx context.Context, userID primitive.ObjectID) (*Profile, error) {
	user, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profileOf(user), nil
}

func profileOf(user *domain.User) *Profile {
	return &Profile{
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		AvatarURL: user.AvatarURL,
	}
}

func validateForm(form SettingsForm) error {
	if strings.TrimSpace(form.Name) == "" {
		return invalid(FieldName, "Digite um nome válido.")
	}
	email := strings.TrimSpace(form.Email)
	if email == "" || !strings.Contains(email, "@") {
		return invalid(FieldEmail, "Digite um e-mail válido.")
	}
	if form.Password != "" || form.PasswordConfirmation != "" {
		if len(form.Password) < MinPasswordLength {
			return invalid(FieldPassword, fmt.Sprintf("A senha precisa ter pelo menos %d caracteres.", MinPasswordLength))
		}
		if form.Password != form.PasswordConfirmation {
			return invalid(FieldPassword, "As senhas digitadas não conferem.")
		}
	}
	return nil
}

type fieldCall struct {
	field   string
	label   string
	timeout time.Duration
	run     func(ctx context.Context) error
	err     error
}

func (s *settingsService) Save(ctx context.Context, userID primitive.ObjectID, form SettingsForm) (*SaveResult, error) {
	if err := validateForm(form); err != nil {
		return nil, err
	}

	baseline, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(form.Name)
	email := strings.TrimSpace(form.Email)
	phone := strings.TrimSpace(form.Phone)

	var calls []*fieldCall
	if name != baseline.Name {
		calls = append(calls, &fieldCall{field: FieldName, label: "update name", timeout: s.timeouts.Name,
			run: func(ctx context.Context) error {
				_, err := s.profiles.UpdateName(ctx, userID, name)
				return err
			}})
	}
	if email != baseline.Email {
		calls = append(calls, &fieldCall{field: FieldEmail, label: "update email", timeout: s.timeouts.Email,
			run: func(ctx context.Context) error {
				_, err := s.identity.UpdateUser(ctx, userID, UserUpdate{Email: &email})
				return err
			}})
	}
	if phone != baseline.Phone {
		calls = append(calls, &fieldCall{field: FieldPhone, label: "update phone", timeout: s.timeouts.Phone,
			run: func(ctx context.Context) error {
				return s.profiles.UpdatePhone(ctx, userID, phone)
			}})
	}
	if form.Password != "" {
		password := form.Password
		calls = append(calls, &fieldCall{field: FieldPassword, label: "update password", timeout: s.timeouts.Password,
			run: func(ctx context.Context) error {
				_, err := s.identity.UpdateUser(ctx, userID, UserUpdate{Password: &password})
				return err
			}})
	}
	if len(calls) == 0 {
		return nil, ErrNothingToSave
	}

	var wg sync.WaitGroup
	for _, call := range calls {
		wg.Add(1)
		go func(call *fieldCall) {
			defer wg.Done()
			call.err = callWithTimeout(ctx, call.timeout, call.label, call.run)
		}(call)
	}
	wg.Wait()

	result := &SaveResult{Profile: *baseline, Updated: []string{}}
	var errs error
	emailChanged := false
	for _, call := range calls {
		if call.err != nil {
			s.metrics.CounterSettingsUpdates.WithLabelValues(call.field, "failed").Inc()
			log.Warnf("settings: %s update for %s failed: %s", call.field, userID.Hex(), call.err)
			result.Failed = append(result.Failed, call.field)
			continue
		}
		s.metrics.CounterSettingsUpdates.WithLabelValues(call.field, "ok").Inc()
		result.Updated = append(result.Updated, call.field)
		switch call.field {
		case FieldName:
			result.Profile.Name = name
		case FieldEmail:
			result.Profile.Email = email
			emailChanged = true
		case FieldPhone:
			result.Profile.Phone = phone
		}
	}

	for _, call := range calls {
		if call.err == nil {
			continue
		}
		if call.field == FieldPassword {
			errs = multierr.Append(errs, fmt.Errorf("Senha: %w", call.err))
			errs = multierr.Append(errs, fmt.Errorf("Dica: tente 'Esqueci minha senha' pelo e-mail %s", result.Profile.Email))
			continue
		}
		errs = multierr.Append(errs, call.err)
	}

	if errs != nil {
		result.Message = SettingsPartialMessage
		return result, errs
	}
	result.Message = SettingsSavedMessage
	if emailChanged {
		result.Message += "\n\n" + EmailChangeNotice
	}
	return result, nil
}

// callWithTimeout bounds fn by d. fn keeps running in the background when it
// ignores its context; only its result is dropped.
func callWithTimeout(ctx context.Context, d time.Duration, label string, fn func(context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) {
			return timeoutError(label, d)
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return timeoutError(label, d)
		}
		return ctx.Err()
	}
}

func timeoutError(label string, d time.Duration) error {
	return fmt.Errorf("Timeout: %s > %dms", label, d.Milliseconds())
}

func (s *settingsService) ReplaceAvatar(ctx context.Context, userID primitive.ObjectID, body []byte, filename string) (string, error) {
	if len(body) == 0 {
		return "", ErrEmptyAvatar
	}
	contentType, ext, err := avatarType(body, filename)
	if err != nil {
		return "", err
	}

	path := fmt.Sprintf("%s/avatar_%d.%s", userID.Hex(), time.Now().UnixMilli(), ext)
	stored, err := s.avatars.Upload(ctx, path, body, contentType, true)
	if err != nil {
		return "", err
	}

	var previous string
	if user, err := s.profiles.GetByID(ctx, userID); err != nil {
		log.Warnf("settings: reading the current avatar of %s failed: %s", userID.Hex(), err)
	} else {
		previous = s.avatarPath(userID, user.AvatarURL)
	}

	publicURL := s.avatars.PublicURL(stored) + "?t=" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := s.profiles.UpdateAvatarURL(ctx, userID, publicURL); err != nil {
		return "", err
	}

	if previous != "" && previous != stored {
		if err := s.avatars.Delete(ctx, previous); err != nil {
			log.Warnf("settings: removing old avatar %s failed: %s", previous, err)
		}
	}

	if _, err := s.identity.UpdateUser(ctx, userID, UserUpdate{Metadata: map[string]string{"avatar_url": publicURL}}); err != nil {
		log.Warnf("settings: mirroring avatar onto auth metadata of %s failed: %s", userID.Hex(), err)
	}
	return publicURL, nil
}

// avatarPath maps an avatar URL back to the user's object in the bucket. It is
// empty for URLs served from anywhere else.
func (s *settingsService) avatarPath(userID primitive.ObjectID, avatarURL string) string {
	if avatarURL == "" {
		return ""
	}
	raw, _, _ := strings.Cut(avatarURL, "?")
	rest, ok := strings.CutPrefix(raw, s.avatars.PublicURL(""))
	if !ok {
		return ""
	}
	path, err := url.PathUnescape(rest)
	if err != nil || !strings.HasPrefix(path, userID.Hex()+"/") {
		return ""
	}
	return path
}

// avatarType sniffs the image type from the bytes and falls back to the file
// extension when the content is not recognised.
func avatarType(body []byte, filename string) (contentType string, ext string, err error) {
	detected := mimetype.Detect(body)
	if strings.HasPrefix(detected.String(), "image/") {
		return detected.String(), strings.TrimPrefix(detected.Extension(), "."), nil
	}
	if !detected.Is("application/octet-stream") {
		return "", "", ErrUnsupportedAvatar
	}

	ext = strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		ext = "jpg"
	}
	contentType, ok := avatarExtensions[ext]
	if !ok {
		return "", "", ErrUnsupportedAvatar
	}
	return contentType, ext, nil
}

var avatarExtensions = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"heic": "image/heic",
}
