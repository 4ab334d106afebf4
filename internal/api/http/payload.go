package http

import (
	"github.com/google/uuid"

	"github.com/fieldcart/backoffice/internal/model"
)

type loginRequest struct {
	Email       string           `json:"email"       validate:"omitempty,email"`
	PhoneNumber string           `json:"phoneNumber" validate:"omitempty,min=8"`
	Password    string           `json:"password"`
	RequestOTP  bool             `json:"requestOtp"`
	DeviceInfo  model.DeviceInfo `json:"deviceInfo"`
}

type verifyOTPRequest struct {
	Email       string           `json:"email"       validate:"omitempty,email"`
	PhoneNumber string           `json:"phoneNumber" validate:"omitempty,min=8"`
	Code        string           `json:"code"        validate:"required,len=6,numeric"`
	Type        string           `json:"type"        validate:"required,eq=LOGIN"`
	DeviceInfo  model.DeviceInfo `json:"deviceInfo"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type userPayload struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PhoneNumber      string    `json:"phoneNumber"`
	ManagementAccess bool      `json:"managementAccess"`
	Modules          []string  `json:"modules"`
}

type authResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         userPayload `json:"user"`
}

type permissionsResponse struct {
	Modules []string `json:"modules"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type imagePayload struct {
	URL          string `json:"url"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	MIMEType     string `json:"mimetype"`
	Size         int64  `json:"size"`
}

type singleUploadResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    imagePayload `json:"data"`
}

type batchFailurePayload struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type multiUploadData struct {
	Successful   []imagePayload        `json:"successful"`
	Failed       []batchFailurePayload `json:"failed"`
	TotalFiles   int                   `json:"totalFiles"`
	SuccessCount int                   `json:"successCount"`
	FailureCount int                   `json:"failureCount"`
}

type multiUploadResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    multiUploadData `json:"data"`
}

func toUserPayload(u model.User) userPayload {
	return userPayload{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		PhoneNumber:      u.PhoneNumber,
		ManagementAccess: u.ManagementAccess,
		Modules:          u.Modules,
	}
}

func toImagePayload(img model.UploadedImage) imagePayload {
	return imagePayload{
		URL:          img.URL,
		Filename:     img.Filename,
		OriginalName: img.OriginalName,
		MIMEType:     img.MIMEType,
		Size:         img.SizeBytes,
	}
}
