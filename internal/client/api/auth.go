package api

import (
	"context"

	"github.com/dbarkov/feedline/internal/client/models"
	"github.com/dbarkov/feedline/internal/filex"
)

// LoginRequest is the credential-exchange payload.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// AuthResult is returned by login and registration: a raw token plus the
// scheme it should be attached with.
type AuthResult struct {
	Token  string `json:"token"`
	Scheme string `json:"scheme"`
}

// RegisterRequest is the scalar part of the registration form; an optional
// avatar image travels as a separate multipart file.
type RegisterRequest struct {
	Name      string  `json:"name"`
	Handle    string  `json:"handle"`
	Secret    string  `json:"secret"`
	Bio       string  `json:"bio,omitempty"`
	Hobby     string  `json:"hobby,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// Login exchanges credentials for a token. No Authorization header is
// required (or attached, unless a session is already installed).
func (g *Gateway) Login(ctx context.Context, identifier, secret string) (AuthResult, error) {
	var res AuthResult
	err := g.postJSON(ctx, "/auth/login", LoginRequest{Identifier: identifier, Secret: secret}, &res)
	return res, err
}

// Register submits the registration form with an optional avatar image.
func (g *Gateway) Register(ctx context.Context, req RegisterRequest, image *filex.Attachment) (AuthResult, error) {
	var res AuthResult
	var files []filePart
	if image != nil {
		files = append(files, filePart{field: "image", attachment: image})
	}
	err := g.postMultipart(ctx, "/auth/register", req, files, &res)
	return res, err
}

// CurrentUser fetches the profile of the session owner.
func (g *Gateway) CurrentUser(ctx context.Context) (models.User, error) {
	var u models.User
	err := g.getJSON(ctx, "/users/me", &u)
	return u, err
}
