package api_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"alcyxob/fitcoach/internal/api"
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestSettingsHandler_LoadAndSave(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/v1/settings", f.studTok, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	profile := decode[service.Profile](t, rr)
	assert.Equal(t, "Ana Paula", profile.Name)
	assert.Equal(t, f.student.Email, profile.Email)

	form := service.SettingsForm{Name: profile.Name, Email: profile.Email, Phone: "+55 11 99999-0000"}
	rr = f.do(t, http.MethodPut, "/api/v1/settings", f.studTok, form)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	result := decode[service.SaveResult](t, rr)
	assert.Equal(t, []string{service.FieldPhone}, result.Updated)
	assert.Equal(t, service.SettingsSavedMessage, result.Message)
	assert.Equal(t, "+55 11 99999-0000", result.Profile.Phone)

	rr = f.do(t, http.MethodPut, "/api/v1/settings", f.studTok, form)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, service.ErrNothingToSave.Error(), decode[errorBody](t, rr).Error)
}

func TestSettingsHandler_Validation(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPut, "/api/v1/settings", f.studTok, service.SettingsForm{Name: "Ana", Email: "sem-arroba"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Equal(t, service.FieldEmail, body.Field)
	assert.Equal(t, "Digite um e-mail válido.", body.Error)

	rr = f.do(t, http.MethodPut, "/api/v1/settings", f.studTok, service.SettingsForm{
		Name: "Ana", Email: f.student.Email, Password: "abcdef", PasswordConfirmation: "abcdeg",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "As senhas digitadas não conferem.", decode[errorBody](t, rr).Error)
}

func TestSettingsHandler_PartialFailure(t *testing.T) {
	f := newFixture(t)
	taken := f.seedUser(t, "Bruno", domain.RoleStudent)

	rr := f.do(t, http.MethodPut, "/api/v1/settings", f.studTok, service.SettingsForm{Name: "Ana P.", Email: taken.Email})
	require.Equal(t, http.StatusMultiStatus, rr.Code, rr.Body.String())
	partial := decode[api.PartialSaveResponse](t, rr)
	require.NotNil(t, partial.SaveResult)
	assert.Equal(t, []string{service.FieldName}, partial.Updated)
	assert.Equal(t, []string{service.FieldEmail}, partial.Failed)
	assert.Equal(t, service.SettingsPartialMessage, partial.Message)
	assert.Equal(t, "Ana P.", partial.Profile.Name)
	assert.Equal(t, f.student.Email, partial.Profile.Email)
	assert.Equal(t, []string{service.ErrUserAlreadyExists.Error()}, partial.Errors)
}

func avatarRequest(t *testing.T, token, filename string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, "/api/v1/settings/avatar", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestSettingsHandler_ReplaceAvatar(t *testing.T) {
	f := newFixture(t)

	rr := f.serve(avatarRequest(t, f.studTok, "me.png", pngBytes))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	url := decode[api.AvatarResponse](t, rr).AvatarURL
	assert.True(t, strings.HasPrefix(url, "https://cdn.test/avatars/"+f.student.ID.Hex()+"/avatar_"), url)
	assert.Contains(t, url, ".png?t=")
	assert.Len(t, f.storage.objects, 1)

	rr = f.do(t, http.MethodGet, "/api/v1/settings", f.studTok, nil)
	assert.Equal(t, url, decode[service.Profile](t, rr).AvatarURL)

	// the replaced object is removed from the bucket
	time.Sleep(2 * time.Millisecond)
	rr = f.serve(avatarRequest(t, f.studTok, "me.png", pngBytes))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	next := decode[api.AvatarResponse](t, rr).AvatarURL
	require.NotEqual(t, url, next)
	require.Len(t, f.storage.objects, 1)
	for path := range f.storage.objects {
		assert.Contains(t, next, path)
	}

	rr = f.serve(avatarRequest(t, f.studTok, "notes.txt", []byte("just some text")))
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)

	req, err := http.NewRequest(http.MethodPost, "/api/v1/settings/avatar", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+f.studTok)
	assert.Equal(t, http.StatusBadRequest, f.serve(req).Code)
}
