package api

import (
	"alcyxob/fitcoach/internal/service"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
)

const (
	avatarFormField = "file"
	maxAvatarBytes  = 10 << 20
)

type SettingsHandler struct {
	settingsService service.SettingsService
}

func NewSettingsHandler(settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// PartialSaveResponse is sent with 207 when some of the changed fields could
// not be written.
type PartialSaveResponse struct {
	*service.SaveResult
	Errors []string `json:"errors"`
}

type AvatarUpload struct {
	File *multipart.FileHeader `form:"file" binding:"required"`
}

type AvatarResponse struct {
	AvatarURL string `json:"avatarUrl"`
}

func (h *SettingsHandler) Load(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	profile, err := h.settingsService.Load(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err, "Falha ao carregar perfil")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Save writes the changed fields. Every field is attempted; when some fail
// the response is 207 with the new baseline and one line per failure.
func (h *SettingsHandler) Save(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var form service.SettingsForm
	if !bindJSON(c, &form) {
		return
	}

	result, err := h.settingsService.Save(c.Request.Context(), userID, form)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case result != nil:
		lines := []string{}
		for _, e := range multierr.Errors(err) {
			lines = append(lines, e.Error())
		}
		c.JSON(http.StatusMultiStatus, PartialSaveResponse{SaveResult: result, Errors: lines})
	case errors.Is(err, service.ErrNothingToSave):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithServiceError(c, err, "Falha ao salvar alterações")
	}
}

// ReplaceAvatar takes the image in the "file" multipart field.
func (h *SettingsHandler) ReplaceAvatar(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var upload AvatarUpload
	if !bindForm(c, &upload) {
		return
	}
	header := upload.File
	if header.Size > maxAvatarBytes {
		abortWithError(c, http.StatusRequestEntityTooLarge, "avatar image is too large")
		return
	}
	file, err := header.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "could not read avatar image")
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "could not read avatar image")
		return
	}

	url, err := h.settingsService.ReplaceAvatar(c.Request.Context(), userID, body, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyAvatar):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUnsupportedAvatar):
			abortWithError(c, http.StatusUnsupportedMediaType, err.Error())
		default:
			abortWithServiceError(c, err, "Falha ao enviar foto")
		}
		return
	}
	c.JSON(http.StatusOK, AvatarResponse{AvatarURL: url})
}
